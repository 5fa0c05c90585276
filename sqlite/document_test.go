package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/crawl"
	"github.com/fwojciec/siteqa/retrieve"
	"github.com/fwojciec/siteqa/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore_AddDocument(t *testing.T) {
	t.Parallel()

	t.Run("inserts document with generated ID and timestamp", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)
		ctx := context.Background()

		doc := &siteqa.Document{
			URL:   "https://uni.test/admissions",
			Title: "Admissions",
			Text:  "Applications open in May.",
		}
		inserted, err := store.AddDocument(ctx, doc)

		require.NoError(t, err)
		assert.True(t, inserted)
		assert.NotEmpty(t, doc.ID)
		assert.False(t, doc.FetchedAt.IsZero())
	})

	t.Run("is idempotent per URL", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)
		ctx := context.Background()

		first, err := store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/a", Text: "first"})
		require.NoError(t, err)
		second, err := store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/a", Text: "second"})
		require.NoError(t, err)

		assert.True(t, first)
		assert.False(t, second)

		docs, err := store.Documents(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "first", docs[0].Text)
	})

	t.Run("keeps provided fetch time", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)
		ctx := context.Background()
		fetched := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

		_, err := store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/a", FetchedAt: fetched})
		require.NoError(t, err)

		doc, err := store.FindDocumentByURL(ctx, "https://uni.test/a")
		require.NoError(t, err)
		assert.True(t, fetched.Equal(doc.FetchedAt))
	})

	t.Run("rejects invalid URL", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)

		_, err := store.AddDocument(context.Background(), &siteqa.Document{URL: "ftp://uni.test/a"})

		assert.Equal(t, siteqa.EINGEST, siteqa.ErrorCode(err))
	})
}

func TestDocumentStore_Documents(t *testing.T) {
	t.Parallel()

	t.Run("returns empty slice for empty store", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)

		docs, err := store.Documents(context.Background())

		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	t.Run("returns documents in insertion order", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)
		ctx := context.Background()

		urls := []string{"https://uni.test/z", "https://uni.test/a", "https://uni.test/m"}
		for _, u := range urls {
			_, err := store.AddDocument(ctx, &siteqa.Document{URL: u, Text: u})
			require.NoError(t, err)
		}

		docs, err := store.Documents(ctx)
		require.NoError(t, err)

		require.Len(t, docs, 3)
		for i, u := range urls {
			assert.Equal(t, u, docs[i].URL)
		}
	})
}

func TestDocumentStore_FindDocumentByURL(t *testing.T) {
	t.Parallel()

	t.Run("returns stored document", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)
		ctx := context.Background()

		doc := &siteqa.Document{URL: "https://uni.test/a", Title: "A", Text: "alpha"}
		_, err := store.AddDocument(ctx, doc)
		require.NoError(t, err)

		found, err := store.FindDocumentByURL(ctx, "https://uni.test/a")

		require.NoError(t, err)
		assert.Equal(t, doc.ID, found.ID)
		assert.Equal(t, "A", found.Title)
		assert.Equal(t, "alpha", found.Text)
	})

	t.Run("returns ENOTFOUND for missing URL", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)

		_, err := store.FindDocumentByURL(context.Background(), "https://uni.test/missing")

		assert.Equal(t, siteqa.ENOTFOUND, siteqa.ErrorCode(err))
	})
}

func TestDocumentStore_Stat(t *testing.T) {
	t.Parallel()

	t.Run("starts at zero", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)

		stat, err := store.Stat(context.Background())

		require.NoError(t, err)
		assert.Equal(t, siteqa.CorpusStat{}, stat)
	})

	t.Run("duplicate add does not change version", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)
		ctx := context.Background()

		_, err := store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/a"})
		require.NoError(t, err)
		before, err := store.Stat(ctx)
		require.NoError(t, err)

		_, err = store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/a"})
		require.NoError(t, err)
		after, err := store.Stat(ctx)
		require.NoError(t, err)

		assert.Equal(t, before, after)
	})

	t.Run("version survives clear", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewDocumentStore(db)
		ctx := context.Background()

		_, err := store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/a"})
		require.NoError(t, err)
		before, err := store.Stat(ctx)
		require.NoError(t, err)

		require.NoError(t, store.ClearDocuments(ctx))
		_, err = store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/b"})
		require.NoError(t, err)
		after, err := store.Stat(ctx)
		require.NoError(t, err)

		assert.Equal(t, 1, before.Count)
		assert.Equal(t, 1, after.Count)
		assert.Greater(t, after.Version, before.Version)
	})
}

func TestDocumentStore_ClearDocuments(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	store := sqlite.NewDocumentStore(db)
	ctx := context.Background()

	_, err := store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/a"})
	require.NoError(t, err)

	require.NoError(t, store.ClearDocuments(ctx))

	docs, err := store.Documents(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	// The URL can be stored again after a clear.
	inserted, err := store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/a"})
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestDocumentStore_CountByTextHash(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	store := sqlite.NewDocumentStore(db)
	ctx := context.Background()

	for _, u := range []string{"https://uni.test/a", "https://uni.test/a?print=1"} {
		_, err := store.AddDocument(ctx, &siteqa.Document{URL: u, Text: "same body"})
		require.NoError(t, err)
	}

	var texts crawl.TextCounter = store

	n, err := texts.CountByTextHash(ctx, "same body")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = texts.CountByTextHash(ctx, "other body")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDocumentStore_ConcurrentAddAndRead(t *testing.T) {
	t.Parallel()

	db := sqlite.NewDB(filepath.Join(t.TempDir(), "siteqa.db"))
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	store := sqlite.NewDocumentStore(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 50 {
			_, err := store.AddDocument(ctx, &siteqa.Document{
				URL:  fmt.Sprintf("https://uni.test/page%d", i),
				Text: fmt.Sprintf("page %d body", i),
			})
			assert.NoError(t, err)
		}
	}()

	for range 20 {
		docs, err := store.Documents(ctx)
		require.NoError(t, err)
		for _, d := range docs {
			// Readers only ever see whole documents.
			assert.Contains(t, d.Text, "body")
			assert.NotEmpty(t, d.ID)
		}
	}
	wg.Wait()

	stat, err := store.Stat(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, stat.Count)
	assert.Equal(t, int64(50), stat.Version)
}

func TestDocumentStore_DuplicateAddKeepsIndex(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	store := sqlite.NewDocumentStore(db)
	index := &retrieve.Service{Documents: store}
	ctx := context.Background()
	opts := siteqa.RetrieveOptions{K: 3, AutoReindex: true}

	_, err := store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/fees", Text: "tuition fees"})
	require.NoError(t, err)
	_, err = index.Retrieve(ctx, "tuition", opts)
	require.NoError(t, err)
	before := index.Status().Version

	inserted, err := store.AddDocument(ctx, &siteqa.Document{URL: "https://uni.test/fees", Text: "tuition fees"})
	require.NoError(t, err)
	require.False(t, inserted)

	_, err = index.Retrieve(ctx, "tuition", opts)
	require.NoError(t, err)
	assert.Equal(t, before, index.Status().Version)
}
