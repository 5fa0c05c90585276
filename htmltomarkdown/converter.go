// Package htmltomarkdown implements siteqa.Converter producing Markdown, so
// stored page text keeps headings, lists and tables.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/siteqa"
)

// Ensure Converter implements siteqa.Converter at compile time.
var _ siteqa.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// Convert transforms HTML content into Markdown. Empty content converts to
// an empty string, which the crawler treats as a page without text.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", siteqa.Errorf(siteqa.EINGEST, "convert to markdown: %v", err)
	}

	return strings.TrimSpace(blankLines.ReplaceAllString(result, "\n\n")), nil
}
