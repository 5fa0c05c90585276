package siteqa

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// DefaultExcerptLength is the maximum excerpt length in runes.
const DefaultExcerptLength = 800

// DefaultK is the number of passages retrieved when a caller does not say.
const DefaultK = 5

// Hit is a single ranked row of an index snapshot.
type Hit struct {
	// Position is the document's row in the snapshot (corpus insertion order).
	Position int     `json:"position"`
	URL      string  `json:"url"`
	Score    float64 `json:"score"`
}

// Passage is a retrieved document excerpt handed to answer generation.
type Passage struct {
	URL     string  `json:"url"`
	Title   string  `json:"title,omitempty"`
	Excerpt string  `json:"excerpt"`
	Score   float64 `json:"score"`
}

// RetrieveOptions configures a retrieval.
type RetrieveOptions struct {
	// K is the maximum number of passages to return. Must be positive.
	K int `json:"k"`

	// AutoReindex rebuilds the index first when the corpus changed
	// since the current snapshot was built.
	AutoReindex bool `json:"auto_reindex"`

	// MinScore drops passages scoring below it. Zero keeps everything.
	MinScore float64 `json:"min_score,omitempty"`
}

// Validate returns EQUERY if the options are unusable.
func (o RetrieveOptions) Validate() error {
	if o.K <= 0 {
		return Errorf(EQUERY, "k must be positive, got %d", o.K)
	}
	if o.MinScore < 0 {
		return Errorf(EQUERY, "min score must not be negative")
	}
	return nil
}

// IndexState is the lifecycle state of the similarity index.
type IndexState string

// Index states. Queries are only answered from a ready snapshot; while a
// rebuild runs the previous ready snapshot keeps serving.
const (
	IndexEmpty    IndexState = "empty"
	IndexBuilding IndexState = "building"
	IndexReady    IndexState = "ready"
)

// IndexStatus describes the currently installed snapshot.
type IndexStatus struct {
	State     IndexState `json:"state"`
	Version   uint64     `json:"version"`
	Documents int        `json:"documents"`
	Terms     int        `json:"terms"`
	BuiltAt   time.Time  `json:"built_at,omitzero"`
}

// Rebuild outcomes.
const (
	RebuildOK    = "ok"
	RebuildError = "error"
)

// RebuildResult reports the outcome of an explicit rebuild.
type RebuildResult struct {
	Status           string `json:"status"`
	DocumentsIndexed int    `json:"documents_indexed"`
}

// Retriever turns a question into the most relevant passages of the corpus.
type Retriever interface {
	// Retrieve returns at most opts.K passages ordered by descending score.
	// An empty corpus or a query with no known terms yields no passages.
	// Returns EQUERY for invalid options.
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]Passage, error)

	// Rebuild builds a new snapshot from the current corpus and installs it.
	// On failure the previous snapshot stays installed.
	Rebuild(ctx context.Context) (*RebuildResult, error)

	// Status describes the installed snapshot.
	Status() IndexStatus
}

// Excerpt collapses whitespace in text and cuts it to at most max runes.
// A non-positive max uses DefaultExcerptLength.
func Excerpt(text string, max int) string {
	if max <= 0 {
		max = DefaultExcerptLength
	}

	var sb strings.Builder
	n := 0
	space := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			space = sb.Len() > 0
			continue
		}
		if space {
			if n+1 >= max {
				break
			}
			sb.WriteByte(' ')
			n++
			space = false
		}
		if n >= max {
			break
		}
		sb.WriteRune(r)
		n++
	}
	return sb.String()
}

// FormatPassages formats passages as context for a language model.
// Uses title if available, falls back to the URL.
// Passages are separated by blank lines.
func FormatPassages(passages []Passage) string {
	if len(passages) == 0 {
		return ""
	}

	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		header := p.URL
		if p.Title != "" {
			header = p.Title + " - " + p.URL
		}
		parts = append(parts, header+"\n"+p.Excerpt)
	}

	return strings.Join(parts, "\n\n")
}
