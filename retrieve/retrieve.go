// Package retrieve keeps a TF-IDF snapshot of the document store current and
// serves ranked passages from it.
package retrieve

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/prometheus"
	"github.com/fwojciec/siteqa/tfidf"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of query results kept per service.
const DefaultCacheSize = 256

// Ensure Service implements siteqa.Retriever at compile time.
var _ siteqa.Retriever = (*Service)(nil)

// SnapshotStore persists index snapshots between runs.
type SnapshotStore interface {
	SaveSnapshot(s *tfidf.Snapshot) error

	// LoadSnapshot returns ENOTFOUND if nothing has been saved.
	LoadSnapshot() (*tfidf.Snapshot, error)
}

// Service implements siteqa.Retriever over a DocumentStore.
//
// Queries are answered from an immutable snapshot that is swapped atomically
// when a rebuild finishes, so a query never observes a half-built index and
// always resolves its hits against the corpus the snapshot was built from.
// Rebuilds are serialized; while one runs the previous snapshot keeps serving.
type Service struct {
	Documents siteqa.DocumentStore
	Snapshots SnapshotStore // optional
	Options   tfidf.Options // zero value uses tfidf.DefaultOptions
	Logger    *slog.Logger
	Metrics   *prometheus.Metrics // optional

	// ExcerptLength bounds passage excerpts in runes. Zero uses
	// siteqa.DefaultExcerptLength.
	ExcerptLength int

	// CacheSize bounds the query result cache. Zero uses DefaultCacheSize,
	// a negative value disables caching.
	CacheSize int

	current  atomic.Pointer[tfidf.Snapshot]
	version  atomic.Uint64
	building atomic.Bool
	stale    atomic.Bool

	mu sync.Mutex // serializes builds

	cacheOnce sync.Once
	cache     *lru.Cache[cacheKey, []siteqa.Passage]
}

type cacheKey struct {
	version  uint64
	k        int
	minScore float64
	query    string
}

// Open installs the persisted snapshot, if there is one. A missing or
// unreadable snapshot is not an error; the index simply starts empty. A
// snapshot built with other options still serves, but the next
// auto-reindexing retrieval replaces it.
func (s *Service) Open(ctx context.Context) error {
	if s.Snapshots == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.Snapshots.LoadSnapshot()
	if err != nil {
		if siteqa.ErrorCode(err) != siteqa.ENOTFOUND {
			s.logger().WarnContext(ctx, "ignoring persisted snapshot", "error", err)
		}
		return nil
	}

	if snap.Version > s.version.Load() {
		s.version.Store(snap.Version)
	}
	s.install(snap)
	s.logger().InfoContext(ctx, "snapshot loaded",
		"version", snap.Version,
		"documents", snap.Len(),
		"terms", snap.Terms(),
	)
	if !snap.Options.SameResults(s.options()) {
		s.stale.Store(true)
		s.logger().InfoContext(ctx, "snapshot options differ from configuration, rebuild pending",
			"version", snap.Version)
	}
	return nil
}

// Invalidate marks the installed snapshot as out of date so the next
// auto-reindexing retrieval rebuilds it.
func (s *Service) Invalidate() {
	s.stale.Store(true)
}

// Status describes the installed snapshot.
func (s *Service) Status() siteqa.IndexStatus {
	st := siteqa.IndexStatus{State: siteqa.IndexEmpty}
	if snap := s.current.Load(); snap != nil {
		st.State = siteqa.IndexReady
		st.Version = snap.Version
		st.Documents = snap.Len()
		st.Terms = snap.Terms()
		st.BuiltAt = snap.BuiltAt
	}
	if s.building.Load() {
		st.State = siteqa.IndexBuilding
	}
	return st
}

// Rebuild builds a snapshot from the whole corpus and installs it. It waits
// for any rebuild already in progress. On failure the previous snapshot stays
// installed and the result reports RebuildError alongside the error.
func (s *Service) Rebuild(ctx context.Context) (*siteqa.RebuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuild(ctx)
}

// rebuild must be called with s.mu held.
func (s *Service) rebuild(ctx context.Context) (*siteqa.RebuildResult, error) {
	s.building.Store(true)
	defer s.building.Store(false)

	start := time.Now()
	snap, err := s.build(ctx)
	elapsed := time.Since(start)
	if err != nil {
		s.stale.Store(true)
		s.Metrics.ObserveRebuild(siteqa.RebuildError, elapsed.Seconds(), 0, 0)
		s.logger().ErrorContext(ctx, "index rebuild failed", "error", err, "duration", elapsed)
		return &siteqa.RebuildResult{Status: siteqa.RebuildError}, err
	}

	snap.Version = s.version.Add(1)
	s.install(snap)

	s.Metrics.ObserveRebuild(siteqa.RebuildOK, elapsed.Seconds(), snap.Len(), snap.Terms())
	s.logger().InfoContext(ctx, "index rebuilt",
		"version", snap.Version,
		"documents", snap.Len(),
		"terms", snap.Terms(),
		"duration", elapsed,
	)

	if s.Snapshots != nil {
		if err := s.Snapshots.SaveSnapshot(snap); err != nil {
			s.logger().WarnContext(ctx, "failed to persist snapshot", "version", snap.Version, "error", err)
		}
	}

	return &siteqa.RebuildResult{Status: siteqa.RebuildOK, DocumentsIndexed: snap.Len()}, nil
}

func (s *Service) build(ctx context.Context) (*tfidf.Snapshot, error) {
	// Stat before reading so writes that land during the read leave the
	// snapshot looking stale rather than current.
	stat, err := s.Documents.Stat(ctx)
	if err != nil {
		return nil, err
	}
	s.stale.Store(false)

	docs, err := s.Documents.Documents(ctx)
	if err != nil {
		return nil, err
	}

	snap, err := tfidf.Build(ctx, docs, s.options())
	if err != nil {
		return nil, err
	}
	snap.CorpusVersion = stat.Version
	return snap, nil
}

func (s *Service) install(snap *tfidf.Snapshot) {
	s.current.Store(snap)
}

// Retrieve returns the passages best matching query. With opts.AutoReindex
// the snapshot is rebuilt first when the corpus changed, unless another
// rebuild is already running, in which case the current snapshot answers.
func (s *Service) Retrieve(ctx context.Context, query string, opts siteqa.RetrieveOptions) ([]siteqa.Passage, error) {
	start := time.Now()
	passages, err := s.retrieve(ctx, query, opts)
	s.Metrics.ObserveRetrieval(time.Since(start).Seconds(), len(passages), err)
	return passages, err
}

func (s *Service) retrieve(ctx context.Context, query string, opts siteqa.RetrieveOptions) ([]siteqa.Passage, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return []siteqa.Passage{}, nil
	}

	if opts.AutoReindex {
		if err := s.refresh(ctx); err != nil {
			return nil, err
		}
	}

	snap := s.current.Load()
	if snap == nil {
		return []siteqa.Passage{}, nil
	}

	cache := s.resultCache()
	key := cacheKey{version: snap.Version, k: opts.K, minScore: opts.MinScore, query: query}
	if cache != nil {
		if cached, ok := cache.Get(key); ok {
			s.Metrics.ObserveCache(true)
			return slices.Clone(cached), nil
		}
		s.Metrics.ObserveCache(false)
	}

	hits, err := snap.Query(query, opts.K)
	if err != nil {
		return nil, err
	}

	passages := make([]siteqa.Passage, 0, len(hits))
	for _, hit := range hits {
		if opts.MinScore > 0 && hit.Score < opts.MinScore {
			continue
		}
		doc := snap.Document(hit.Position)
		passages = append(passages, siteqa.Passage{
			URL:     doc.URL,
			Title:   doc.Title,
			Excerpt: siteqa.Excerpt(doc.Text, s.ExcerptLength),
			Score:   hit.Score,
		})
	}

	if cache != nil {
		cache.Add(key, slices.Clone(passages))
	}
	return passages, nil
}

// refresh rebuilds the snapshot when the corpus no longer matches it.
func (s *Service) refresh(ctx context.Context) error {
	current := s.current.Load()

	stale := current == nil || s.stale.Load() || !current.Options.SameResults(s.options())
	if !stale {
		stat, err := s.Documents.Stat(ctx)
		if err != nil {
			return err
		}
		stale = stat.Count != current.Len() || stat.Version != current.CorpusVersion
	}
	if !stale {
		return nil
	}

	if !s.mu.TryLock() {
		return nil
	}
	defer s.mu.Unlock()

	// Another caller may have rebuilt while we checked.
	if s.current.Load() != current {
		return nil
	}

	if _, err := s.rebuild(ctx); err != nil {
		if current != nil {
			s.logger().WarnContext(ctx, "serving previous snapshot after failed rebuild",
				"version", current.Version, "error", err)
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) resultCache() *lru.Cache[cacheKey, []siteqa.Passage] {
	s.cacheOnce.Do(func() {
		size := s.CacheSize
		if size < 0 {
			return
		}
		if size == 0 {
			size = DefaultCacheSize
		}
		s.cache, _ = lru.New[cacheKey, []siteqa.Passage](size)
	})
	return s.cache
}

func (s *Service) options() tfidf.Options {
	if s.Options == (tfidf.Options{}) {
		return tfidf.DefaultOptions()
	}
	return s.Options
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}
