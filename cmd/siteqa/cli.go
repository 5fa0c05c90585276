package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/crawl"
	"github.com/fwojciec/siteqa/prometheus"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdout    io.Writer
	Stderr    io.Writer
	Config    Config
	Logger    *slog.Logger
	Metrics   *prometheus.Metrics
	Documents siteqa.DocumentStore
	Exchanges siteqa.ExchangeService
	Retriever siteqa.Retriever
	Snapshots SnapshotRemover
	Crawler   *crawl.Crawler
	Asker     siteqa.Asker

	// Invalidate marks the installed index snapshot as out of date.
	Invalidate func()
}

// SnapshotRemover deletes the persisted index snapshot.
type SnapshotRemover interface {
	Remove() error
}

// Extractor and format names accepted by the crawl command.
const (
	extractorGoquery     = "goquery"
	extractorTrafilatura = "trafilatura"
	extractorReadability = "readability"

	formatText     = "text"
	formatMarkdown = "markdown"
)

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config    string `type:"path" help:"YAML config file"`
	DataDir   string `name:"data-dir" env:"SITEQA_DATA_DIR" help:"Directory holding the database and index snapshot"`
	DB        string `name:"db" env:"SITEQA_DB" help:"Database path (defaults to siteqa.db in the data directory)"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn, error"`
	LogFormat string `name:"log-format" help:"Log format: text or json"`

	Crawl   CrawlCmd   `cmd:"" help:"Crawl a site and store its pages"`
	Reindex ReindexCmd `cmd:"" help:"Rebuild the search index"`
	Query   QueryCmd   `cmd:"" help:"Show the pages most relevant to a query"`
	Ask     AskCmd     `cmd:"" help:"Answer a question from the crawled pages"`
	Docs    DocsCmd    `cmd:"" help:"List stored documents"`
	Clear   ClearCmd   `cmd:"" help:"Delete all stored documents and the index"`
	History HistoryCmd `cmd:"" help:"Show recent questions and answers"`
	Serve   ServeCmd   `cmd:"" help:"Serve the HTTP API"`
}

// CrawlCmd is the "crawl" subcommand. Zero-valued flags fall back to the
// config file.
type CrawlCmd struct {
	URL       string        `arg:"" help:"Start URL"`
	MaxPages  int           `name:"max-pages" short:"n" help:"Maximum number of pages to visit"`
	Delay     time.Duration `help:"Delay between requests to the same host"`
	Domain    string        `help:"Restrict the crawl to this domain and its subdomains"`
	Sitemap   bool          `help:"Seed the crawl from the site's sitemaps"`
	Browser   bool          `help:"Render pages in a headless browser"`
	Extractor string        `help:"Content extractor: goquery, trafilatura, readability"`
	Format    string        `help:"Stored text format: text or markdown"`
}

// ReindexCmd is the "reindex" subcommand.
type ReindexCmd struct{}

// QueryCmd is the "query" subcommand.
type QueryCmd struct {
	Text      string  `arg:"" help:"Query text"`
	K         int     `short:"k" help:"Number of passages"`
	NoReindex bool    `name:"no-reindex" help:"Query the current index even if the corpus changed"`
	MinScore  float64 `name:"min-score" help:"Drop passages scoring below this"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Question string `arg:"" help:"Question to ask"`
	K        int    `short:"k" help:"Number of passages to answer from"`
}

// DocsCmd is the "docs" subcommand.
type DocsCmd struct {
	Export string `type:"path" help:"Write every document as a markdown file under this directory"`
}

// ClearCmd is the "clear" subcommand.
type ClearCmd struct {
	Force bool `help:"Confirm deletion"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of exchanges to show"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `help:"Listen address"`
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

// errorText returns the message of an application error, or the full text
// of any other error.
func errorText(err error) string {
	var e *siteqa.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
