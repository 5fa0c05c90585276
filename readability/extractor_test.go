package readability_test

import (
	"testing"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts the article", func(t *testing.T) {
		t.Parallel()

		html := `<!DOCTYPE html>
<html>
<head><title>Hostel Allotment Rules</title></head>
<body>
<div class="sidebar"><a href="/">Home</a><a href="/hostels">Hostels</a></div>
<article>
<h1>Hostel Allotment Rules</h1>
<p>Rooms are allotted on a first-come, first-served basis once the semester fee
has been paid in full. Students who have not paid the fee by the deadline lose
their priority and are placed on the waiting list for the next round.</p>
<p>Requests to change rooms are accepted during the first two weeks of each
semester only, and every change must be approved by the chief warden in writing.</p>
</article>
</body>
</html>`

		result, err := readability.NewExtractor(nil).Extract(html)

		require.NoError(t, err)
		assert.Equal(t, "Hostel Allotment Rules", result.Title)
		assert.Contains(t, result.ContentHTML, "first-come, first-served")
		assert.Contains(t, result.ContentHTML, "chief warden")
	})

	t.Run("empty input is EINGEST", func(t *testing.T) {
		t.Parallel()

		_, err := readability.NewExtractor(nil).Extract("")

		assert.Equal(t, siteqa.EINGEST, siteqa.ErrorCode(err))
	})
}
