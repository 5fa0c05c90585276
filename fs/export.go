package fs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/siteqa"
	"gopkg.in/yaml.v3"
)

// URLToPath converts a page URL to a relative file path.
// Example: https://example.com/admissions/ug → admissions/ug.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	path := u.Path

	// Handle root or trailing slash → index.md
	if path == "" || path == "/" {
		return "index.md", nil
	}

	path = strings.TrimPrefix(path, "/")

	// Trailing slash becomes index.md in that directory
	if strings.HasSuffix(path, "/") {
		return path + "index.md", nil
	}

	return path + ".md", nil
}

// frontmatter is the YAML header written above each exported document.
type frontmatter struct {
	Source  string `yaml:"source"`
	Title   string `yaml:"title,omitempty"`
	Crawled string `yaml:"crawled"`
}

// FormatDocument formats a document with YAML frontmatter.
func FormatDocument(doc *siteqa.Document) (string, error) {
	header, err := yaml.Marshal(frontmatter{
		Source:  doc.URL,
		Title:   doc.Title,
		Crawled: doc.FetchedAt.Format(time.DateOnly),
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(doc.Text)
	return b.String(), nil
}

// Exporter writes a corpus to a directory as one file per document.
// Files are written to dir.tmp and moved to dir once every document is
// written, so a failed export leaves any previous export untouched.
type Exporter struct {
	baseDir string
	name    string
}

// NewExporter creates an exporter writing to baseDir/name.
func NewExporter(baseDir, name string) *Exporter {
	return &Exporter{baseDir: baseDir, name: name}
}

func (e *Exporter) tempDir() string {
	return filepath.Join(e.baseDir, e.name+".tmp")
}

// Dir returns the final export directory.
func (e *Exporter) Dir() string {
	return filepath.Join(e.baseDir, e.name)
}

// Export writes docs and commits them. It returns the number of files written.
// Documents whose URLs map to the same path overwrite each other; the last wins.
func (e *Exporter) Export(ctx context.Context, docs []*siteqa.Document) (int, error) {
	if err := os.RemoveAll(e.tempDir()); err != nil {
		return 0, err
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			_ = e.abort()
			return 0, err
		}
		if err := e.save(doc); err != nil {
			_ = e.abort()
			return 0, fmt.Errorf("export %s: %w", doc.URL, err)
		}
	}

	if err := e.commit(); err != nil {
		_ = e.abort()
		return 0, err
	}
	return len(docs), nil
}

func (e *Exporter) save(doc *siteqa.Document) error {
	relPath, err := URLToPath(doc.URL)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(e.tempDir(), relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}

	content, err := FormatDocument(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(content), 0o644)
}

func (e *Exporter) commit() error {
	if err := os.MkdirAll(e.tempDir(), 0o755); err != nil {
		return err
	}
	if err := os.RemoveAll(e.Dir()); err != nil {
		return err
	}
	return os.Rename(e.tempDir(), e.Dir())
}

func (e *Exporter) abort() error {
	return os.RemoveAll(e.tempDir())
}
