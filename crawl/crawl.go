// Package crawl provides breadth-first site crawling.
// It coordinates robots.txt checks, sitemap seeding, fetching, extraction,
// and storage of crawled pages.
package crawl

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/prometheus"
)

// Frontier configuration.
const (
	// frontierExpectedURLs is the minimum expected number of URLs for Bloom filter sizing.
	frontierExpectedURLs = 10000
	// frontierFalsePositiveRate is the acceptable false positive rate for deduplication.
	frontierFalsePositiveRate = 0.001
	// frontierLinksPerPage estimates discovered links per visited page.
	frontierLinksPerPage = 50
)

// Compile-time interface verification.
var _ siteqa.Crawler = (*Crawler)(nil)

// TextCounter counts stored documents whose text equals text.
type TextCounter interface {
	CountByTextHash(ctx context.Context, text string) (int, error)
}

// Crawler crawls a site breadth-first and stores each page's text.
//
// Crawl runs a crawl in the calling goroutine. Start, Stop and Status run a
// single crawl in the background; at most one background crawl runs at a time.
type Crawler struct {
	Fetcher      siteqa.Fetcher
	Extractor    siteqa.Extractor
	Converter    siteqa.Converter
	LinkSelector siteqa.LinkSelector
	Documents    siteqa.DocumentStore
	Texts        TextCounter           // optional, skips pages whose text is already stored
	Robots       siteqa.RobotsService  // optional
	Sitemaps     siteqa.SitemapService // optional, used when a request asks for it
	RateLimiter  siteqa.DomainLimiter  // optional, defaults to one request per request delay
	RetryDelays  []time.Duration
	Logger       *slog.Logger
	Metrics      *prometheus.Metrics // optional

	mu     sync.Mutex
	status siteqa.CrawlStatus
	cancel context.CancelFunc
	done   chan struct{}
}

// Result holds the outcome of a crawl.
type Result struct {
	Visited    int // URLs taken from the frontier, counted against MaxPages
	Stored     int
	Duplicates int // already stored under the same URL
	SameText   int // text already stored under another URL
	Skipped    int // disallowed by robots.txt or without text
	Failed     int
	Bytes      int
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type    ProgressType
	Visited int
	Stored  int
	URL     string
	Error   error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressVisiting
	ProgressStored
	ProgressDuplicate
	ProgressSameText
	ProgressSkipped
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// crawlRun holds the state of one crawl.
type crawlRun struct {
	req      siteqa.CrawlRequest
	domain   string
	frontier *Frontier
	limiter  siteqa.DomainLimiter
	robots   map[string]*siteqa.Robots
	result   Result
	progress ProgressFunc
}

func (r *crawlRun) notify(typ ProgressType, url string, err error) {
	if r.progress == nil {
		return
	}
	r.progress(ProgressEvent{
		Type:    typ,
		Visited: r.result.Visited,
		Stored:  r.result.Stored,
		URL:     url,
		Error:   err,
	})
}

// Crawl visits pages breadth-first from req.StartURL until the frontier is
// empty, req.MaxPages URLs have been visited or ctx is canceled. Failures on
// individual pages are logged and counted; they never end the crawl.
// Cancellation is not an error: the pages stored so far are reported.
func (c *Crawler) Crawl(ctx context.Context, req siteqa.CrawlRequest, progress ProgressFunc) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	limiter := c.RateLimiter
	if limiter == nil {
		limiter = NewDomainLimiter(req.Delay)
	}

	expected := max(uint(req.MaxPages)*frontierLinksPerPage, frontierExpectedURLs)
	run := &crawlRun{
		req:      req,
		domain:   req.ScopeDomain(),
		frontier: NewFrontier(expected, frontierFalsePositiveRate),
		limiter:  limiter,
		robots:   make(map[string]*siteqa.Robots),
		progress: progress,
	}

	run.frontier.Push(siteqa.DiscoveredLink{
		URL:      req.StartURL,
		Priority: siteqa.PrioritySeed,
		Source:   "seed",
	})
	if req.UseSitemap && c.Sitemaps != nil {
		c.seedFromSitemap(ctx, run)
	}

	c.logger().InfoContext(ctx, "crawl started",
		"start_url", req.StartURL,
		"domain", run.domain,
		"max_pages", req.MaxPages,
		"delay", req.Delay,
	)
	run.notify(ProgressStarted, req.StartURL, nil)

	for run.result.Visited < req.MaxPages {
		if ctx.Err() != nil {
			break
		}
		link, ok := run.frontier.Pop()
		if !ok {
			break
		}
		run.result.Visited++
		run.notify(ProgressVisiting, link.URL, nil)

		c.visit(ctx, run, link)
	}

	run.notify(ProgressFinished, "", nil)
	c.logger().InfoContext(ctx, "crawl finished",
		"visited", run.result.Visited,
		"stored", run.result.Stored,
		"duplicates", run.result.Duplicates,
		"same_text", run.result.SameText,
		"skipped", run.result.Skipped,
		"failed", run.result.Failed,
		"canceled", ctx.Err() != nil,
	)

	result := run.result
	return &result, nil
}

// seedFromSitemap queues in-scope sitemap URLs behind the seed.
func (c *Crawler) seedFromSitemap(ctx context.Context, run *crawlRun) {
	urls, err := c.Sitemaps.DiscoverURLs(ctx, run.req.StartURL, nil)
	if err != nil {
		c.logger().WarnContext(ctx, "sitemap discovery failed", "url", run.req.StartURL, "error", err)
		return
	}

	queued := 0
	for _, u := range urls {
		if !siteqa.InScope(u, run.domain) {
			continue
		}
		if run.frontier.Push(siteqa.DiscoveredLink{URL: u, Priority: siteqa.PrioritySitemap, Source: "sitemap"}) {
			queued++
		}
	}
	c.logger().DebugContext(ctx, "sitemap seeded", "discovered", len(urls), "queued", queued)
}

// visit processes one URL taken from the frontier.
func (c *Crawler) visit(ctx context.Context, run *crawlRun, link siteqa.DiscoveredLink) {
	log := c.logger().With("url", link.URL)

	if !siteqa.InScope(link.URL, run.domain) {
		c.skip(ctx, run, link.URL, "out of scope")
		return
	}
	if !c.allowed(ctx, run, link.URL) {
		c.skip(ctx, run, link.URL, "disallowed by robots.txt")
		return
	}

	u, err := url.Parse(link.URL)
	if err != nil {
		c.fail(ctx, run, link.URL, siteqa.Errorf(siteqa.EINGEST, "malformed URL %q", link.URL))
		return
	}
	if err := run.limiter.Wait(ctx, u.Hostname()); err != nil {
		return
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	html, err := FetchWithRetryDelays(ctx, link.URL, c.Fetcher.Fetch, log, delays)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.fail(ctx, run, link.URL, err)
		return
	}

	if c.LinkSelector != nil {
		links, err := c.LinkSelector.ExtractLinks(html, link.URL)
		if err != nil {
			log.DebugContext(ctx, "link extraction failed", "error", err)
		}
		for _, discovered := range links {
			if !siteqa.InScope(discovered.URL, run.domain) {
				continue
			}
			discovered.Priority = siteqa.PriorityPage
			discovered.Source = "page"
			run.frontier.Push(discovered)
		}
	}

	extracted, err := c.Extractor.Extract(html)
	if err != nil {
		c.fail(ctx, run, link.URL, err)
		return
	}

	text, err := c.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		c.fail(ctx, run, link.URL, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		c.skip(ctx, run, link.URL, "no text")
		return
	}

	if c.storedText(ctx, text) {
		run.result.SameText++
		c.Metrics.ObserveCrawlPage("same_text")
		log.DebugContext(ctx, "text already stored under another URL")
		run.notify(ProgressSameText, link.URL, nil)
		return
	}

	doc := &siteqa.Document{
		URL:       link.URL,
		Title:     strings.TrimSpace(extracted.Title),
		Text:      text,
		FetchedAt: time.Now().UTC(),
	}
	inserted, err := c.Documents.AddDocument(ctx, doc)
	if err != nil {
		c.fail(ctx, run, link.URL, err)
		return
	}
	if !inserted {
		run.result.Duplicates++
		c.Metrics.ObserveCrawlPage("duplicate")
		log.DebugContext(ctx, "page already stored")
		run.notify(ProgressDuplicate, link.URL, nil)
		return
	}

	run.result.Stored++
	run.result.Bytes += len(text)
	c.Metrics.ObserveCrawlPage("stored")
	log.DebugContext(ctx, "page stored", "title", doc.Title, "bytes", len(text))
	run.notify(ProgressStored, link.URL, nil)
}

// storedText reports whether a page with exactly text is already stored.
// Lookup errors are logged and the page is stored anyway.
func (c *Crawler) storedText(ctx context.Context, text string) bool {
	if c.Texts == nil {
		return false
	}
	n, err := c.Texts.CountByTextHash(ctx, text)
	if err != nil {
		c.logger().DebugContext(ctx, "text lookup failed", "error", err)
		return false
	}
	return n > 0
}

func (c *Crawler) skip(ctx context.Context, run *crawlRun, url, reason string) {
	run.result.Skipped++
	c.Metrics.ObserveCrawlPage("skipped")
	c.logger().DebugContext(ctx, "page skipped", "url", url, "reason", reason)
	run.notify(ProgressSkipped, url, nil)
}

func (c *Crawler) fail(ctx context.Context, run *crawlRun, url string, err error) {
	run.result.Failed++
	c.Metrics.ObserveCrawlPage("failed")
	c.logger().WarnContext(ctx, "page failed", "url", url, "error", err)
	run.notify(ProgressFailed, url, err)
}

// allowed checks url against the robots.txt of its host, fetching it on first use.
func (c *Crawler) allowed(ctx context.Context, run *crawlRun, rawURL string) bool {
	if c.Robots == nil {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)

	robots, ok := run.robots[host]
	if !ok {
		robots, err = c.Robots.FetchRobots(ctx, rawURL)
		if err != nil {
			c.logger().DebugContext(ctx, "robots.txt unavailable, allowing all", "host", host, "error", err)
			robots = nil
		}
		run.robots[host] = robots
	}
	return robots.Allowed(rawURL)
}

// Start launches a background crawl and returns immediately. The crawl
// outlives ctx's cancellation; use Stop to end it.
// Returns ECONFLICT if a crawl is already running.
func (c *Crawler) Start(ctx context.Context, req siteqa.CrawlRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running() {
		return siteqa.Errorf(siteqa.ECONFLICT, "crawl already running")
	}

	crawlCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.done = make(chan struct{})
	c.status = siteqa.CrawlStatus{
		State:     siteqa.CrawlRunning,
		StartedAt: time.Now().UTC(),
	}

	go c.runBackground(crawlCtx, req, c.done)
	return nil
}

// running must be called with c.mu held.
func (c *Crawler) running() bool {
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Crawler) runBackground(ctx context.Context, req siteqa.CrawlRequest, done chan struct{}) {
	defer close(done)

	_, err := c.Crawl(ctx, req, c.track)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel()
	c.status.FinishedAt = time.Now().UTC()
	if err != nil {
		c.status.Error = siteqa.ErrorMessage(err)
	}
	if c.status.State == siteqa.CrawlRunning {
		c.status.State = siteqa.CrawlIdle
	}
}

// track mirrors crawl progress into the background status.
func (c *Crawler) track(ev ProgressEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case ProgressVisiting:
		c.status.LastURL = ev.URL
	case ProgressStored:
		c.status.PagesFetched = ev.Stored
	}
}

// Stop signals the background crawl to finish after the current page.
// It does nothing when no crawl is running.
func (c *Crawler) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running() || c.status.State != siteqa.CrawlRunning {
		return
	}
	c.status.State = siteqa.CrawlStopped
	c.cancel()
}

// Wait blocks until the background crawl, if any, has finished.
func (c *Crawler) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Status reports the state of the current or most recent background crawl.
func (c *Crawler) Status() siteqa.CrawlStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.State == "" {
		return siteqa.CrawlStatus{State: siteqa.CrawlIdle}
	}
	return c.status
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}
