// Package tfidf builds term-frequency/inverse-document-frequency snapshots of
// a document corpus and answers cosine-similarity queries against them.
package tfidf

import (
	"context"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/fwojciec/siteqa"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxFeatures caps the vocabulary size of a snapshot.
const DefaultMaxFeatures = 50000

// Options controls how a snapshot weighs terms. A snapshot keeps the options
// it was built with and applies them to every query it answers.
type Options struct {
	// Stopwords removes common English words from documents and queries.
	Stopwords bool

	// SublinearTF uses 1 + ln(count) instead of the raw count as term frequency.
	SublinearTF bool

	// MaxFeatures keeps only the most frequent terms in the corpus.
	// Zero keeps every term.
	MaxFeatures int

	// Workers bounds tokenization parallelism. Zero uses GOMAXPROCS.
	// It never affects results.
	Workers int
}

// SameResults reports whether o and other build snapshots that answer
// queries identically.
func (o Options) SameResults(other Options) bool {
	o.Workers, other.Workers = 0, 0
	return o == other
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Stopwords:   true,
		MaxFeatures: DefaultMaxFeatures,
	}
}

// Build creates a snapshot from docs. Rows follow the order of docs; a
// document with no terms becomes an all-zero row so rows and URLs stay aligned.
// An empty corpus yields a valid snapshot with no rows.
//
// Returns EBUILD if the corpus breaks the store's guarantees (a missing or
// repeated URL) or if ctx is canceled mid-build.
func Build(ctx context.Context, docs []*siteqa.Document, opts Options) (*Snapshot, error) {
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		if doc == nil || doc.URL == "" {
			return nil, siteqa.Errorf(siteqa.EBUILD, "corpus row %d has no URL", i)
		}
		if _, ok := seen[doc.URL]; ok {
			return nil, siteqa.Errorf(siteqa.EBUILD, "corpus contains %q twice", doc.URL)
		}
		seen[doc.URL] = struct{}{}
	}

	tokens, err := tokenizeAll(ctx, docs, opts)
	if err != nil {
		return nil, siteqa.Errorf(siteqa.EBUILD, "tokenize corpus: %v", err)
	}

	vocab, order := buildVocabulary(tokens, opts.MaxFeatures)

	// Document frequency per column.
	df := make([]int, len(order))
	for _, doc := range tokens {
		counted := make(map[int]struct{})
		for _, tok := range doc {
			col, ok := vocab[tok]
			if !ok {
				continue
			}
			if _, dup := counted[col]; dup {
				continue
			}
			counted[col] = struct{}{}
			df[col]++
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(order))
	for col := range idf {
		idf[col] = math.Log((1+n)/(1+float64(df[col]))) + 1
	}

	s := &Snapshot{
		BuiltAt:    time.Now().UTC(),
		Options:    opts,
		Vocabulary: vocab,
		IDF:        idf,
		Rows:       make([]Row, len(docs)),
		Docs:       make([]siteqa.Document, len(docs)),
	}
	for i, doc := range docs {
		s.Rows[i] = weigh(tokens[i], vocab, idf, opts.SublinearTF)
		s.Docs[i] = *doc
	}

	if err := ctx.Err(); err != nil {
		return nil, siteqa.Errorf(siteqa.EBUILD, "build canceled: %v", err)
	}
	return s, nil
}

// tokenizeAll tokenizes every document concurrently, keeping input order.
func tokenizeAll(ctx context.Context, docs []*siteqa.Document, opts Options) ([][]string, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	tokens := make([][]string, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tokens[i] = Tokenize(doc.Title+" "+doc.Text, opts.Stopwords)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tokens, nil
}

// buildVocabulary assigns column ids to terms in first-seen order. With a
// positive limit only the limit most frequent terms survive (earlier terms win
// ties) and they are renumbered in first-seen order.
func buildVocabulary(tokens [][]string, limit int) (map[string]int, []string) {
	var order []string
	freq := make(map[string]int)
	for _, doc := range tokens {
		for _, tok := range doc {
			if _, ok := freq[tok]; !ok {
				order = append(order, tok)
			}
			freq[tok]++
		}
	}

	if limit > 0 && len(order) > limit {
		rank := make([]int, len(order))
		for i := range rank {
			rank[i] = i
		}
		sort.SliceStable(rank, func(a, b int) bool {
			return freq[order[rank[a]]] > freq[order[rank[b]]]
		})
		keep := rank[:limit]
		sort.Ints(keep)

		kept := make([]string, len(keep))
		for i, idx := range keep {
			kept[i] = order[idx]
		}
		order = kept
	}

	vocab := make(map[string]int, len(order))
	for col, term := range order {
		vocab[term] = col
	}
	return vocab, order
}

// weigh turns a token list into an L2-normalized sparse tf-idf row.
// Terms missing from vocab are ignored.
func weigh(tokens []string, vocab map[string]int, idf []float64, sublinear bool) Row {
	counts := make(map[int]int)
	for _, tok := range tokens {
		if col, ok := vocab[tok]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return Row{}
	}

	cols := make([]int, 0, len(counts))
	for col := range counts {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	row := Row{
		Cols:    make([]int32, len(cols)),
		Weights: make([]float64, len(cols)),
	}
	var norm float64
	for i, col := range cols {
		tf := float64(counts[col])
		if sublinear {
			tf = 1 + math.Log(tf)
		}
		w := tf * idf[col]
		row.Cols[i] = int32(col)
		row.Weights[i] = w
		norm += w * w
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return Row{}
	}
	for i := range row.Weights {
		row.Weights[i] /= norm
	}
	return row
}
