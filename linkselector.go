package siteqa

// LinkPriority represents crawl priority (higher = more important).
type LinkPriority int

// Link priority levels for crawl ordering.
const (
	PriorityIgnore  LinkPriority = 0
	PrioritySitemap LinkPriority = 10
	PriorityPage    LinkPriority = 50
	PrioritySeed    LinkPriority = 100
)

// DiscoveredLink represents a URL with priority metadata.
type DiscoveredLink struct {
	URL      string
	Priority LinkPriority
	Text     string
	Source   string // "seed", "page", "sitemap"
}

// LinkSelector extracts crawlable links from HTML.
type LinkSelector interface {
	// ExtractLinks parses HTML and returns discovered links.
	// The baseURL is used to resolve relative URLs.
	ExtractLinks(html string, baseURL string) ([]DiscoveredLink, error)

	// Name returns the selector's identifier (e.g., "anchors").
	Name() string
}
