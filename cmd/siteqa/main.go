package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/fs"
	"github.com/fwojciec/siteqa/gemini"
	"github.com/fwojciec/siteqa/prometheus"
	"github.com/fwojciec/siteqa/retrieve"
	siteqaslog "github.com/fwojciec/siteqa/slog"
	"github.com/fwojciec/siteqa/sqlite"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Config is set by Run from the config file, the environment and flags.
	Config Config

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	Documents siteqa.DocumentStore
	Exchanges siteqa.ExchangeService
	Index     *retrieve.Service

	// Asker overrides the Gemini asker when set.
	Asker siteqa.Asker

	closers []io.Closer
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	for i := len(m.closers) - 1; i >= 0; i-- {
		_ = m.closers[i].Close()
	}
	m.closers = nil

	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("siteqa"),
		kong.Description("Crawl a web site and answer questions from its pages."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'siteqa --help' to see available commands")
	}

	switch args[0] {
	case "help", "--help", "-h":
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if err := m.configure(cli); err != nil {
		return err
	}
	deps.Config = m.Config

	logger, err := NewLogger(stderr, m.Config.Log.Level, m.Config.Log.Format)
	if err != nil {
		return err
	}
	deps.Logger = logger

	if err := os.MkdirAll(m.Config.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	m.DB = sqlite.NewDB(m.Config.DBPath())
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set %s to use a different database path\n", envDB)
		return fmt.Errorf("failed to open database at %q: %w", m.Config.DBPath(), err)
	}
	defer m.Close()

	metrics := prometheus.New()
	snapshots := fs.NewSnapshotStore(m.Config.DataDir)

	store := sqlite.NewDocumentStore(m.DB)
	m.Documents = siteqaslog.NewLoggingDocumentStore(store, logger)
	m.Exchanges = sqlite.NewExchangeService(m.DB)
	m.Index = &retrieve.Service{
		Documents:     m.Documents,
		Snapshots:     snapshots,
		Options:       m.Config.TFIDFOptions(),
		Logger:        logger,
		Metrics:       metrics,
		ExcerptLength: m.Config.Index.ExcerptLength,
		CacheSize:     m.Config.Index.CacheSize,
	}
	if err := m.Index.Open(ctx); err != nil {
		return err
	}

	deps.Metrics = metrics
	deps.Documents = m.Documents
	deps.Exchanges = m.Exchanges
	deps.Retriever = siteqaslog.NewLoggingRetriever(m.Index, logger)
	deps.Snapshots = snapshots
	deps.Invalidate = m.Index.Invalidate

	cmd := strings.Fields(kongCtx.Command())[0]

	if cmd == "crawl" || cmd == "serve" {
		crawler, closer, err := NewCrawler(m.Config, cli.Crawl, m.Documents, store, logger, metrics)
		if err != nil {
			return err
		}
		m.closers = append(m.closers, closer)
		deps.Crawler = crawler
	}

	if cmd == "ask" || cmd == "serve" {
		asker, err := m.newAsker(ctx, logger)
		if err != nil {
			// Answers fall back to the retrieved passages.
			fmt.Fprintf(stderr, "warning: %v\n", err)
		} else {
			deps.Asker = asker
		}
	}

	return kongCtx.Run(deps)
}

// configure loads the config file and applies global flags over it.
func (m *Main) configure(cli *CLI) error {
	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		return err
	}

	if cli.DataDir != "" {
		cfg.DataDir = cli.DataDir
	}
	if cli.DB != "" {
		cfg.DB = cli.DB
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.Config = cfg
	return nil
}

// newAsker returns m.Asker if set, otherwise a Gemini asker configured from
// the environment. The asker counts tokens locally when the tokenizer
// supports the configured model.
func (m *Main) newAsker(ctx context.Context, logger *slog.Logger) (siteqa.Asker, error) {
	if m.Asker != nil {
		return m.Asker, nil
	}

	apiKey := os.Getenv(envAPIKey)
	if apiKey == "" {
		return nil, errNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	asker := gemini.NewAsker(client)
	asker.Model = m.Config.Gemini.Model
	if m.Config.Gemini.MaxContextTokens > 0 {
		counter, err := gemini.NewTokenCounter(asker.Model)
		if err != nil {
			logger.Warn("token counting unavailable, sending all passages", "model", asker.Model, "error", err)
		} else {
			asker.Counter = counter
			asker.MaxContextTokens = m.Config.Gemini.MaxContextTokens
		}
	}
	return asker, nil
}
