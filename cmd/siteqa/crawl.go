package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/crawl"
	"github.com/fwojciec/siteqa/goquery"
	"github.com/fwojciec/siteqa/htmltomarkdown"
	siteqahttp "github.com/fwojciec/siteqa/http"
	"github.com/fwojciec/siteqa/prometheus"
	"github.com/fwojciec/siteqa/readability"
	"github.com/fwojciec/siteqa/rod"
	siteqaslog "github.com/fwojciec/siteqa/slog"
	"github.com/fwojciec/siteqa/trafilatura"
)

// Run executes the crawl command. The crawl runs in the foreground until the
// frontier is exhausted, the page limit is reached or the context is
// canceled (Ctrl-C); pages stored before cancellation are kept.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	if deps.Crawler == nil {
		return siteqa.Errorf(siteqa.EINTERNAL, "crawler not configured")
	}

	req := c.request(deps.Config)
	if err := req.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", errorText(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Crawling %s (up to %d pages)\n", req.StartURL, req.MaxPages)

	progress := func(ev crawl.ProgressEvent) {
		switch ev.Type {
		case crawl.ProgressStored:
			fmt.Fprintf(deps.Stdout, "  [%d] %s\n", ev.Stored, ev.URL)
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  skip %s: %s\n", ev.URL, errorText(ev.Error))
		}
	}

	result, err := deps.Crawler.Crawl(deps.Ctx, req, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error crawling: %s\n", errorText(err))
		return err
	}
	if deps.Ctx.Err() != nil {
		fmt.Fprintln(deps.Stdout, "Crawl interrupted")
	}

	fmt.Fprintf(deps.Stdout, "Visited %d pages: %d stored, %d already stored, %d same text, %d skipped, %d failed (%s)\n",
		result.Visited, result.Stored, result.Duplicates, result.SameText, result.Skipped, result.Failed, formatBytes(result.Bytes))
	if result.Stored > 0 {
		fmt.Fprintln(deps.Stdout, "The index is rebuilt on the next query, or run 'siteqa reindex'.")
	}
	return nil
}

// request builds the crawl request from flags, falling back to cfg.
func (c *CrawlCmd) request(cfg Config) siteqa.CrawlRequest {
	req := siteqa.CrawlRequest{
		StartURL:   c.URL,
		MaxPages:   cfg.Crawl.MaxPages,
		Delay:      cfg.Crawl.Delay,
		Domain:     c.Domain,
		UseSitemap: c.Sitemap,
	}
	if c.MaxPages != 0 {
		req.MaxPages = c.MaxPages
	}
	if c.Delay != 0 {
		req.Delay = c.Delay
	}
	return req
}

// NewCrawler wires a crawler from cfg and the crawl flags. texts, when not
// nil, lets the crawler skip pages whose text is already stored. The returned
// closer releases the fetcher.
func NewCrawler(cfg Config, flags CrawlCmd, docs siteqa.DocumentStore, texts crawl.TextCounter, logger *slog.Logger, metrics *prometheus.Metrics) (*crawl.Crawler, io.Closer, error) {
	extractorName := cfg.Crawl.Extractor
	if flags.Extractor != "" {
		extractorName = flags.Extractor
	}
	extractor, err := newExtractor(extractorName)
	if err != nil {
		return nil, nil, err
	}

	formatName := cfg.Crawl.Format
	if flags.Format != "" {
		formatName = flags.Format
	}
	converter, err := newConverter(formatName)
	if err != nil {
		return nil, nil, err
	}

	var fetcher siteqa.Fetcher
	if flags.Browser {
		f, err := rod.NewFetcher(
			rod.WithFetchTimeout(cfg.Crawl.Timeout),
			rod.WithRecycleAfter(cfg.Crawl.BrowserRecycle),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
		}
		fetcher = f
	} else {
		fetcher = siteqahttp.NewFetcher(
			siteqahttp.WithTimeout(cfg.Crawl.Timeout),
			siteqahttp.WithUserAgent(cfg.Crawl.UserAgent),
		)
	}
	fetcher = siteqaslog.NewLoggingFetcher(fetcher, logger)

	client := &http.Client{Timeout: cfg.Crawl.Timeout}

	c := &crawl.Crawler{
		Fetcher:      fetcher,
		Extractor:    extractor,
		Converter:    converter,
		LinkSelector: goquery.NewLinkSelector(),
		Documents:    docs,
		Robots:       siteqahttp.NewRobotsService(client, cfg.Crawl.UserAgent),
		Sitemaps:     siteqaslog.NewLoggingSitemapService(siteqahttp.NewSitemapService(client), logger),
		Logger:       logger,
		Metrics:      metrics,
	}
	if cfg.Crawl.SkipDuplicateText {
		c.Texts = texts
	}
	return c, fetcher, nil
}

func newExtractor(name string) (siteqa.Extractor, error) {
	switch name {
	case extractorGoquery, "":
		return goquery.NewExtractor(), nil
	case extractorTrafilatura:
		return trafilatura.NewExtractor(goquery.NewExtractor()), nil
	case extractorReadability:
		return readability.NewExtractor(goquery.NewExtractor()), nil
	default:
		return nil, siteqa.Errorf(siteqa.EINVALID, "unknown extractor %q", name)
	}
}

func newConverter(name string) (siteqa.Converter, error) {
	switch name {
	case formatText, "":
		return goquery.NewTextConverter(), nil
	case formatMarkdown:
		return htmltomarkdown.NewConverter(), nil
	default:
		return nil, siteqa.Errorf(siteqa.EINVALID, "unknown format %q", name)
	}
}

// formatBytes renders n in human-readable units.
func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
