package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/siteqa"
)

// Ensure RobotsService implements siteqa.RobotsService.
var _ siteqa.RobotsService = (*RobotsService)(nil)

// RobotsService fetches and parses robots.txt over HTTP.
type RobotsService struct {
	client    *http.Client
	userAgent string
}

// NewRobotsService creates a RobotsService matching rules for userAgent.
// If client is nil, http.DefaultClient is used; an empty userAgent uses
// DefaultUserAgent.
func NewRobotsService(client *http.Client, userAgent string) *RobotsService {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RobotsService{client: client, userAgent: userAgent}
}

// FetchRobots returns the robots.txt policy for the site serving siteURL.
// A missing robots.txt (any non-200 status) yields a nil policy.
func (s *RobotsService) FetchRobots(ctx context.Context, siteURL string) (*siteqa.Robots, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return nil, siteqa.Errorf(siteqa.EINGEST, "malformed URL %q", siteURL)
	}
	robotsURL := base.ResolveReference(&url.URL{Path: "/robots.txt"})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	return ParseRobots(resp.Body, s.userAgent)
}

// ParseRobots parses a robots.txt document and keeps the rules of the group
// that applies to userAgent: the group naming its product token, otherwise
// the "*" group. Sitemap directives are collected from the whole file.
func ParseRobots(r io.Reader, userAgent string) (*siteqa.Robots, error) {
	token := productToken(userAgent)

	var (
		robots      siteqa.Robots
		specific    []siteqa.RobotsRule
		wildcard    []siteqa.RobotsRule
		hasSpecific bool

		// agents of the group being read; reset when a rule follows them
		agents   []string
		inRules  bool
		matching bool
		star     bool
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if inRules {
				agents = nil
				inRules = false
			}
			agents = append(agents, strings.ToLower(value))
			matching, star = false, false
			for _, a := range agents {
				if a == "*" {
					star = true
				} else if token != "" && strings.Contains(token, a) {
					matching = true
				}
			}
			if matching {
				hasSpecific = true
			}
		case "allow", "disallow":
			inRules = true
			rule := siteqa.RobotsRule{Allow: key == "allow", Path: value}
			if matching {
				specific = append(specific, rule)
			} else if star {
				wildcard = append(wildcard, rule)
			}
		case "sitemap":
			if value != "" {
				robots.Sitemaps = append(robots.Sitemaps, value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}

	if hasSpecific {
		robots.Rules = specific
	} else {
		robots.Rules = wildcard
	}
	return &robots, nil
}

// productToken returns the lower-cased name part of a User-Agent string,
// e.g. "siteqa-bot" for "siteqa-bot/1.0 (+https://...)".
func productToken(userAgent string) string {
	token, _, _ := strings.Cut(strings.TrimSpace(userAgent), " ")
	token, _, _ = strings.Cut(token, "/")
	return strings.ToLower(token)
}
