// Package trafilatura implements siteqa.Extractor with go-trafilatura's
// main-content detection.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/siteqa"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements siteqa.Extractor at compile time.
var _ siteqa.Extractor = (*Extractor)(nil)

// Extractor extracts the main content block of an article-like page.
//
// Trafilatura rejects pages whose main text is too short, which is common on
// index and contact pages. When a Fallback is set those pages are handed to
// it instead of failing.
type Extractor struct {
	Fallback siteqa.Extractor
}

// NewExtractor creates an Extractor that falls back to fallback (may be nil).
func NewExtractor(fallback siteqa.Extractor) *Extractor {
	return &Extractor{Fallback: fallback}
}

// Extract processes raw HTML and returns the main content.
// Returns EINGEST when the page is empty or no content can be found.
func (e *Extractor) Extract(rawHTML string) (*siteqa.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, siteqa.Errorf(siteqa.EINGEST, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{
		EnableFallback: true,
	})
	if err != nil || result == nil || result.ContentNode == nil {
		if e.Fallback != nil {
			return e.Fallback.Extract(rawHTML)
		}
		if err == nil {
			return nil, siteqa.Errorf(siteqa.EINGEST, "no main content found")
		}
		return nil, siteqa.Errorf(siteqa.EINGEST, "extract main content: %v", err)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, result.ContentNode); err != nil {
		return nil, siteqa.Errorf(siteqa.EINGEST, "render content: %v", err)
	}

	return &siteqa.ExtractResult{
		Title:       strings.TrimSpace(result.Metadata.Title),
		ContentHTML: buf.String(),
	}, nil
}
