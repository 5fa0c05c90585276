package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/gemini"
	siteqahttp "github.com/fwojciec/siteqa/http"
	"github.com/fwojciec/siteqa/rod"
	"github.com/fwojciec/siteqa/tfidf"
	"gopkg.in/yaml.v3"
)

// Environment variables read when the corresponding flag is not given.
const (
	envDataDir = "SITEQA_DATA_DIR"
	envDB      = "SITEQA_DB"
	envAPIKey  = "GEMINI_API_KEY"
)

// dbFile is the database file name inside the data directory.
const dbFile = "siteqa.db"

// Config holds settings read from the optional YAML config file.
// Command-line flags take precedence over every value here.
type Config struct {
	DataDir string       `yaml:"dataDir"`
	DB      string       `yaml:"db"`
	Log     LogConfig    `yaml:"log"`
	Crawl   CrawlConfig  `yaml:"crawl"`
	Index   IndexConfig  `yaml:"index"`
	Gemini  GeminiConfig `yaml:"gemini"`
	Server  ServerConfig `yaml:"server"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CrawlConfig holds crawl defaults.
type CrawlConfig struct {
	MaxPages  int           `yaml:"maxPages"`
	Delay     time.Duration `yaml:"delay"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
	Extractor string        `yaml:"extractor"`
	Format    string        `yaml:"format"`

	// SkipDuplicateText skips pages whose text is already stored under
	// another URL, such as print views and tracking-parameter variants.
	SkipDuplicateText bool `yaml:"skipDuplicateText"`

	// BrowserRecycle is how many pages the --browser fetcher loads before
	// restarting Chrome. Zero never restarts it.
	BrowserRecycle int `yaml:"browserRecycle"`
}

// IndexConfig holds index and retrieval defaults.
type IndexConfig struct {
	Stopwords     bool    `yaml:"stopwords"`
	SublinearTF   bool    `yaml:"sublinearTF"`
	MaxFeatures   int     `yaml:"maxFeatures"`
	CacheSize     int     `yaml:"cacheSize"`
	ExcerptLength int     `yaml:"excerptLength"`
	K             int     `yaml:"k"`
	MinScore      float64 `yaml:"minScore"`
}

// GeminiConfig holds answer generation settings.
type GeminiConfig struct {
	Model            string `yaml:"model"`
	MaxContextTokens int    `yaml:"maxContextTokens"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	opts := tfidf.DefaultOptions()
	return Config{
		DataDir: defaultDataDir(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Crawl: CrawlConfig{
			MaxPages:  siteqa.DefaultMaxPages,
			Delay:     siteqa.DefaultCrawlDelay,
			Timeout:   siteqahttp.DefaultFetchTimeout,
			UserAgent: siteqahttp.DefaultUserAgent,
			Extractor: extractorGoquery,
			Format:    formatText,

			SkipDuplicateText: true,
			BrowserRecycle:    rod.DefaultMaxPages,
		},
		Index: IndexConfig{
			Stopwords:     opts.Stopwords,
			SublinearTF:   opts.SublinearTF,
			MaxFeatures:   opts.MaxFeatures,
			ExcerptLength: siteqa.DefaultExcerptLength,
			K:             siteqa.DefaultK,
		},
		Gemini: GeminiConfig{
			Model:            gemini.DefaultModel,
			MaxContextTokens: 100000,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// LoadConfig returns DefaultConfig overlaid with the YAML file at path and
// then with the environment. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, siteqa.Errorf(siteqa.EINVALID, "parse config %s: %v", path, err)
		}
	}

	if v := os.Getenv(envDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(envDB); v != "" {
		cfg.DB = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate returns EINVALID if a setting is out of range.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return siteqa.Errorf(siteqa.EINVALID, "data directory required")
	}
	if c.Crawl.MaxPages <= 0 {
		return siteqa.Errorf(siteqa.EINVALID, "crawl.maxPages must be positive")
	}
	if c.Crawl.Delay < 0 {
		return siteqa.Errorf(siteqa.EINVALID, "crawl.delay must not be negative")
	}
	if c.Crawl.BrowserRecycle < 0 {
		return siteqa.Errorf(siteqa.EINVALID, "crawl.browserRecycle must not be negative")
	}
	if c.Index.K <= 0 {
		return siteqa.Errorf(siteqa.EINVALID, "index.k must be positive")
	}
	if c.Index.MinScore < 0 {
		return siteqa.Errorf(siteqa.EINVALID, "index.minScore must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return siteqa.Errorf(siteqa.EINVALID, "unknown log format %q", c.Log.Format)
	}
	return nil
}

// DBPath returns the database location: the configured path, or a file in
// the data directory.
func (c *Config) DBPath() string {
	if c.DB != "" {
		return c.DB
	}
	return filepath.Join(c.DataDir, dbFile)
}

// TFIDFOptions returns the index build options.
func (c *Config) TFIDFOptions() tfidf.Options {
	return tfidf.Options{
		Stopwords:   c.Index.Stopwords,
		SublinearTF: c.Index.SublinearTF,
		MaxFeatures: c.Index.MaxFeatures,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".siteqa"
	}
	return filepath.Join(home, ".siteqa")
}

// NewLogger creates a logger writing to w in the given level and format.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, siteqa.Errorf(siteqa.EINVALID, "unknown log format %q", format)
	}
}

func parseLevel(level string) (slog.Level, error) {
	var lvl slog.Level
	if level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return 0, siteqa.Errorf(siteqa.EINVALID, "unknown log level %q", level)
	}
	return lvl, nil
}

// errNoAPIKey is reported when answer generation is unavailable.
var errNoAPIKey = errors.New(envAPIKey + " not set. Get a key at https://aistudio.google.com/apikey")
