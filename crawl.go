package siteqa

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Crawl defaults used when a caller leaves the limits unset.
const (
	DefaultMaxPages   = 150
	DefaultCrawlDelay = 800 * time.Millisecond
)

// CrawlRequest describes a breadth-first crawl starting from a seed URL.
type CrawlRequest struct {
	StartURL string        `json:"start_url"`
	MaxPages int           `json:"max_pages"`
	Delay    time.Duration `json:"delay"`

	// Domain limits the crawl to hosts equal to or below it.
	// Defaults to the host of StartURL.
	Domain string `json:"domain,omitempty"`

	// UseSitemap seeds the frontier with URLs from the site's sitemaps.
	UseSitemap bool `json:"use_sitemap,omitempty"`
}

// Validate returns an error if the request contains invalid fields.
func (r *CrawlRequest) Validate() error {
	if r.StartURL == "" {
		return Errorf(EINGEST, "start URL required")
	}
	if err := ValidateURL(r.StartURL); err != nil {
		return err
	}
	if r.MaxPages <= 0 {
		return Errorf(EINVALID, "max pages must be positive, got %d", r.MaxPages)
	}
	if r.Delay < 0 {
		return Errorf(EINVALID, "delay must not be negative, got %s", r.Delay)
	}
	return nil
}

// ScopeDomain returns the domain the crawl is restricted to.
func (r *CrawlRequest) ScopeDomain() string {
	if r.Domain != "" {
		return strings.ToLower(r.Domain)
	}
	u, err := url.Parse(r.StartURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// InScope reports whether rawURL belongs to domain: its host is the domain
// itself or one of its subdomains.
func InScope(rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// CrawlState is the lifecycle state of a background crawl.
type CrawlState string

// Crawl states.
const (
	CrawlIdle    CrawlState = "idle"
	CrawlRunning CrawlState = "running"
	CrawlStopped CrawlState = "stopped"
)

// CrawlStatus is a point-in-time view of a background crawl.
type CrawlStatus struct {
	State        CrawlState `json:"state"`
	PagesFetched int        `json:"pages_fetched"`
	LastURL      string     `json:"last_url,omitempty"`
	StartedAt    time.Time  `json:"started_at,omitzero"`
	FinishedAt   time.Time  `json:"finished_at,omitzero"`
	Error        string     `json:"error,omitempty"`
}

// Crawler runs crawls in the background.
type Crawler interface {
	// Start launches a crawl and returns immediately.
	// Returns ECONFLICT if a crawl is already running.
	Start(ctx context.Context, req CrawlRequest) error

	// Stop signals the running crawl to finish after the current page.
	// The crawl ends in the stopped state.
	Stop()

	// Status reports the state of the current or most recent crawl.
	Status() CrawlStatus
}
