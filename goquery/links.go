// Package goquery implements HTML parsing adapters with goquery: anchor link
// discovery, boilerplate removal and visible-text conversion.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/siteqa"
)

var _ siteqa.LinkSelector = (*LinkSelector)(nil)

// LinkSelector discovers links from every anchor on a page.
type LinkSelector struct{}

// NewLinkSelector creates a new LinkSelector.
func NewLinkSelector() *LinkSelector {
	return &LinkSelector{}
}

// Name returns the selector's identifier.
func (s *LinkSelector) Name() string {
	return "anchors"
}

// ExtractLinks returns the http(s) links of all a[href] elements, resolved
// against baseURL, fragments stripped, deduplicated in document order.
// Links back to the page itself are dropped. Scope filtering is left to the
// caller.
func (s *LinkSelector) ExtractLinks(html string, baseURL string) ([]siteqa.DiscoveredLink, error) {
	page, err := url.Parse(baseURL)
	if err != nil {
		return nil, siteqa.Errorf(siteqa.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, siteqa.Errorf(siteqa.EINGEST, "failed to parse HTML: %v", err)
	}

	// <base href> changes how relative links resolve.
	base := page
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = base.ResolveReference(ref)
		}
	}

	seen := make(map[string]bool)
	var links []siteqa.DiscoveredLink

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || isNonHTTPLink(href) {
			return
		}

		resolved := resolveURL(base, page, href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true

		links = append(links, siteqa.DiscoveredLink{
			URL:      resolved,
			Priority: siteqa.PriorityPage,
			Text:     strings.Join(strings.Fields(sel.Text()), " "),
			Source:   "page",
		})
	})

	return links, nil
}

// resolveURL resolves href against base and strips the fragment.
// Returns "" for unparseable, non-http(s) or links back to page.
func resolveURL(base, page *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	self := *page
	self.Fragment = ""
	self.RawFragment = ""

	result := resolved.String()
	if result == self.String() {
		return ""
	}
	return result
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
