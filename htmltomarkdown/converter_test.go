package htmltomarkdown_test

import (
	"testing"

	"github.com/fwojciec/siteqa/htmltomarkdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		html     string
		contains []string
	}{
		{
			name:     "headings",
			html:     `<h1>Admissions</h1><h2>Eligibility</h2>`,
			contains: []string{"# Admissions", "## Eligibility"},
		},
		{
			name:     "links",
			html:     `<p>See the <a href="https://example.com/fees">fee schedule</a>.</p>`,
			contains: []string{"[fee schedule](https://example.com/fees)"},
		},
		{
			name:     "lists",
			html:     `<ul><li>Transcript</li><li>Passport photo</li></ul>`,
			contains: []string{"- Transcript", "- Passport photo"},
		},
		{
			name:     "tables",
			html:     `<table><thead><tr><th>Program</th><th>Seats</th></tr></thead><tbody><tr><td>B.Tech</td><td>120</td></tr></tbody></table>`,
			contains: []string{"| Program | Seats |", "| B.Tech", "| 120"},
		},
		{
			name:     "emphasis",
			html:     `<p><strong>Deadline:</strong> <em>March 31</em></p>`,
			contains: []string{"**Deadline:**", "*March 31*"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			md, err := htmltomarkdown.NewConverter().Convert(tt.html)

			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, md, want)
			}
		})
	}

	t.Run("collapses blank lines and trims", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert("\n\n<p>One</p>\n\n\n\n<p>Two</p>\n\n")

		require.NoError(t, err)
		assert.Equal(t, "One\n\nTwo", md)
	})

	t.Run("empty input converts to empty text", func(t *testing.T) {
		t.Parallel()

		md, err := htmltomarkdown.NewConverter().Convert(" \n ")

		require.NoError(t, err)
		assert.Empty(t, md)
	})
}
