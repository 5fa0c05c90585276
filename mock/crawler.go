package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.Crawler = (*Crawler)(nil)

// Crawler is a mock implementation of siteqa.Crawler.
type Crawler struct {
	StartFn  func(ctx context.Context, req siteqa.CrawlRequest) error
	StopFn   func()
	StatusFn func() siteqa.CrawlStatus
}

func (c *Crawler) Start(ctx context.Context, req siteqa.CrawlRequest) error {
	return c.StartFn(ctx, req)
}

func (c *Crawler) Stop() {
	c.StopFn()
}

func (c *Crawler) Status() siteqa.CrawlStatus {
	return c.StatusFn()
}
