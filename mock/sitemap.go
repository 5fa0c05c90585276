package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of siteqa.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *siteqa.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *siteqa.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}

var _ siteqa.RobotsService = (*RobotsService)(nil)

// RobotsService is a mock implementation of siteqa.RobotsService.
type RobotsService struct {
	FetchRobotsFn func(ctx context.Context, siteURL string) (*siteqa.Robots, error)
}

func (s *RobotsService) FetchRobots(ctx context.Context, siteURL string) (*siteqa.Robots, error) {
	return s.FetchRobotsFn(ctx, siteURL)
}
