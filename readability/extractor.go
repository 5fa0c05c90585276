// Package readability implements siteqa.Extractor with go-readability.
package readability

import (
	"strings"

	"github.com/fwojciec/siteqa"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements siteqa.Extractor at compile time.
var _ siteqa.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract the article of a page.
// Pages readability cannot make sense of go to Fallback when it is set.
type Extractor struct {
	Fallback siteqa.Extractor
}

// NewExtractor creates an Extractor that falls back to fallback (may be nil).
func NewExtractor(fallback siteqa.Extractor) *Extractor {
	return &Extractor{Fallback: fallback}
}

// Extract processes raw HTML and returns the article content.
// Returns EINGEST when the page is empty or has no readable content.
func (e *Extractor) Extract(rawHTML string) (*siteqa.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, siteqa.Errorf(siteqa.EINGEST, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		if e.Fallback != nil {
			return e.Fallback.Extract(rawHTML)
		}
		if err == nil {
			return nil, siteqa.Errorf(siteqa.EINGEST, "no readable content found")
		}
		return nil, siteqa.Errorf(siteqa.EINGEST, "extract article: %v", err)
	}

	return &siteqa.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		ContentHTML: article.Content,
	}, nil
}
