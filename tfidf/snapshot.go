package tfidf

import (
	"sort"
	"time"

	"github.com/fwojciec/siteqa"
)

// Row is a sparse, L2-normalized document vector. Cols is sorted ascending.
type Row struct {
	Cols    []int32
	Weights []float64
}

// Snapshot is an immutable index over one corpus: its vocabulary, per-term
// IDF, and one row per document. Owners may set Version and CorpusVersion
// before sharing a snapshot; after that it must not be modified.
type Snapshot struct {
	// Version identifies the build. It increases with every installed build.
	Version uint64

	// CorpusVersion is the document store version the corpus was read at.
	CorpusVersion int64

	BuiltAt    time.Time
	Options    Options
	Vocabulary map[string]int
	IDF        []float64
	Rows       []Row

	// Docs holds the indexed documents, aligned with Rows.
	Docs []siteqa.Document
}

// Len returns the number of documents in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Terms returns the vocabulary size.
func (s *Snapshot) Terms() int {
	if s == nil {
		return 0
	}
	return len(s.IDF)
}

// Document returns the document at row pos.
func (s *Snapshot) Document(pos int) siteqa.Document {
	return s.Docs[pos]
}

// Query ranks documents by cosine similarity to text and returns at most k
// hits, best first, ties broken by corpus order. When k covers the whole
// corpus every document is returned, zero scores included. Terms outside the
// vocabulary are ignored; a query with no known terms returns no hits.
//
// Returns EQUERY if k is not positive.
func (s *Snapshot) Query(text string, k int) ([]siteqa.Hit, error) {
	if k <= 0 {
		return nil, siteqa.Errorf(siteqa.EQUERY, "k must be positive, got %d", k)
	}
	if s.Len() == 0 {
		return []siteqa.Hit{}, nil
	}

	q := s.vectorize(text)
	if len(q) == 0 {
		return []siteqa.Hit{}, nil
	}

	hits := make([]siteqa.Hit, len(s.Rows))
	for i, row := range s.Rows {
		var score float64
		for j, col := range row.Cols {
			if w, ok := q[col]; ok {
				score += w * row.Weights[j]
			}
		}
		hits[i] = siteqa.Hit{Position: i, URL: s.Docs[i].URL, Score: score}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// vectorize builds the normalized query vector over the snapshot vocabulary.
func (s *Snapshot) vectorize(text string) map[int32]float64 {
	row := weigh(Tokenize(text, s.Options.Stopwords), s.Vocabulary, s.IDF, s.Options.SublinearTF)
	if len(row.Cols) == 0 {
		return nil
	}

	q := make(map[int32]float64, len(row.Cols))
	for i, col := range row.Cols {
		q[col] = row.Weights[i]
	}
	return q
}
