package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/siteqa"
)

var _ siteqa.Extractor = (*Extractor)(nil)

// boilerplate matches elements that never carry page content.
const boilerplate = "script, style, noscript, template, iframe, svg, meta, link, header, footer, nav"

// Extractor strips boilerplate elements and keeps the rest of the body.
// Unlike the trafilatura and readability extractors it never guesses which
// block is the article, so short or list-heavy pages survive intact.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the page title and the body HTML without boilerplate.
// The title comes from <title>, falling back to the first <h1>.
func (e *Extractor) Extract(html string) (*siteqa.ExtractResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, siteqa.Errorf(siteqa.EINGEST, "failed to parse HTML: %v", err)
	}

	title := collapse(doc.Find("title").First().Text())
	if title == "" {
		title = collapse(doc.Find("h1").First().Text())
	}

	body := doc.Find("body")
	body.Find(boilerplate).Remove()

	content, err := body.Html()
	if err != nil {
		return nil, siteqa.Errorf(siteqa.EINGEST, "failed to render content: %v", err)
	}

	return &siteqa.ExtractResult{
		Title:       title,
		ContentHTML: strings.TrimSpace(content),
	}, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
