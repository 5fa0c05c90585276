package goquery_test

import (
	"testing"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urls(links []siteqa.DiscoveredLink) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.URL
	}
	return out
}

func TestLinkSelector_ExtractLinks(t *testing.T) {
	t.Parallel()

	t.Run("resolves anchors in document order", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<nav><a href="/admissions">Admissions</a></nav>
<main>
	<a href="fees">Fee
		structure</a>
	<a href="https://example.com/hostel">Hostel</a>
	<a href="https://other.org/partner">Partner</a>
</main>
</body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/students/")

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.com/admissions",
			"https://example.com/students/fees",
			"https://example.com/hostel",
			"https://other.org/partner",
		}, urls(links))
		assert.Equal(t, "Fee structure", links[1].Text)
		assert.Equal(t, siteqa.PriorityPage, links[1].Priority)
		assert.Equal(t, "page", links[1].Source)
	})

	t.Run("skips non-http links", func(t *testing.T) {
		t.Parallel()

		html := `<a href="mailto:info@example.com">Mail</a>
<a href="tel:+123">Call</a>
<a href="javascript:void(0)">Menu</a>
<a href="ftp://example.com/file">FTP</a>
<a href="  ">Blank</a>
<a>No href</a>
<a href="/ok">OK</a>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/ok"}, urls(links))
	})

	t.Run("strips fragments and deduplicates", func(t *testing.T) {
		t.Parallel()

		html := `<a href="/faq#fees">Fees</a>
<a href="/faq#hostel">Hostel</a>
<a href="#top">Top</a>
<a href="/page">Self</a>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/page")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/faq"}, urls(links))
	})

	t.Run("honors base element", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><base href="https://cdn.example.com/site/"></head>
<body><a href="about">About</a></body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://cdn.example.com/site/about"}, urls(links))
	})

	t.Run("invalid base URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewLinkSelector().ExtractLinks("<a href='/x'>x</a>", "http://[::1")

		assert.Equal(t, siteqa.EINVALID, siteqa.ErrorCode(err))
	})

	t.Run("name", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "anchors", goquery.NewLinkSelector().Name())
	})
}
