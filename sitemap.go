package siteqa

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

// SitemapService discovers URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs finds all URLs from a site's sitemap.
	// It first checks robots.txt for sitemap directives, then falls back
	// to /sitemap.xml. Sitemap indexes are resolved recursively.
	//
	// If filter is nil, all URLs are returned.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	// Exclude is applied after Include.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 {
		matched := false
		for _, re := range f.Include {
			if re.MatchString(url) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, re := range f.Exclude {
		if re.MatchString(url) {
			return false
		}
	}

	return true
}

// RobotsService fetches a site's robots.txt policy.
type RobotsService interface {
	// FetchRobots returns the policy that applies to this crawler for the
	// site serving siteURL. A site without a readable robots.txt yields a
	// nil policy, which allows everything.
	FetchRobots(ctx context.Context, siteURL string) (*Robots, error)
}

// RobotsRule is a single Allow or Disallow line.
type RobotsRule struct {
	Allow bool
	Path  string
}

// Robots is the part of a robots.txt file that applies to this crawler.
type Robots struct {
	Rules    []RobotsRule
	Sitemaps []string
}

// Allowed reports whether rawURL may be fetched. The longest matching rule
// wins and Allow wins a tie. A nil policy allows everything.
func (r *Robots) Allowed(rawURL string) bool {
	if r == nil {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	allowed, best := true, -1
	for _, rule := range r.Rules {
		if rule.Path == "" || !matchRobotsPath(path, rule.Path) {
			continue
		}
		n := len(rule.Path)
		if n > best || (n == best && rule.Allow) {
			allowed, best = rule.Allow, n
		}
	}
	return allowed
}

// matchRobotsPath matches a path against a robots.txt pattern supporting the
// '*' wildcard and a trailing '$' anchor.
func matchRobotsPath(path, pattern string) bool {
	if !strings.ContainsAny(pattern, "*$") {
		return strings.HasPrefix(path, pattern)
	}

	anchored := strings.HasSuffix(pattern, "$")
	parts := strings.Split(strings.TrimSuffix(pattern, "$"), "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	expr := "^" + strings.Join(parts, ".*")
	if anchored {
		expr += "$"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}
