// Package rod implements siteqa.Fetcher with a headless Chrome browser, for
// sites that render their content with JavaScript.
package rod

import (
	"context"
	"time"

	"github.com/fwojciec/siteqa"
)

// DefaultFetchTimeout bounds a single page load.
const DefaultFetchTimeout = 15 * time.Second

var errClosed = siteqa.Errorf(siteqa.EINVALID, "fetcher is closed")

// Ensure Fetcher implements siteqa.Fetcher at compile time.
var _ siteqa.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager  *BrowserManager
	timeout  time.Duration
	maxPages int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout sets the per-page load timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithRecycleAfter sets how many pages the browser serves before it is
// replaced by a fresh process.
func WithRecycleAfter(pages int) Option {
	return func(f *Fetcher) {
		f.maxPages = pages
	}
}

// NewFetcher launches a headless browser. Close must be called when the
// Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:  DefaultFetchTimeout,
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager(WithMaxPages(f.maxPages))
	if err != nil {
		return nil, err
	}
	f.manager = manager
	return f, nil
}

// Fetch navigates to url, waits for the load event and returns the rendered
// HTML. Returns EINVALID after Close.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := f.manager.NewPage()
	if err != nil {
		return "", err
	}
	defer page.Close()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", f.wrap(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", f.wrap(ctx, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", f.wrap(ctx, err)
	}
	return html, nil
}

// wrap prefers the context error so callers can tell timeouts apart.
func (f *Fetcher) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Close releases browser resources. It is safe to call more than once.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// LauncherPID returns the browser process ID, or 0 after Close.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
