package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/siteqa"
	"golang.org/x/net/html"
)

var _ siteqa.Converter = (*TextConverter)(nil)

// TextConverter turns HTML into its visible text, one space between text
// nodes and all whitespace runs collapsed.
type TextConverter struct{}

// NewTextConverter creates a new TextConverter.
func NewTextConverter() *TextConverter {
	return &TextConverter{}
}

// Convert returns the visible text of htmlContent. Script and style
// contents are not text.
func (c *TextConverter) Convert(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", siteqa.Errorf(siteqa.EINGEST, "failed to parse HTML: %v", err)
	}

	var words []string
	for _, n := range doc.Nodes {
		words = appendText(words, n)
	}
	return strings.Join(words, " "), nil
}

func appendText(words []string, n *html.Node) []string {
	switch n.Type {
	case html.TextNode:
		return append(words, strings.Fields(n.Data)...)
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return words
		}
	case html.CommentNode:
		return words
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		words = appendText(words, child)
	}
	return words
}
