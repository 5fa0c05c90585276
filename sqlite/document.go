package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/siteqa"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ siteqa.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements siteqa.DocumentStore using SQLite.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore.
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// hashText computes xxHash of text and returns hex string.
func hashText(text string) string {
	h := xxhash.Sum64String(text)
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(h >> (56 - 8*i))
	}
	return hex.EncodeToString(b)
}

// AddDocument inserts doc unless its URL is already stored. On insert the
// document's ID is set and a zero FetchedAt is set to now.
func (s *DocumentStore) AddDocument(ctx context.Context, doc *siteqa.Document) (bool, error) {
	if err := doc.Validate(); err != nil {
		return false, err
	}

	id := uuid.New().String()
	fetchedAt := doc.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	// A conflicting INSERT still consumes an AUTOINCREMENT value, which would
	// move the corpus version without a change. Skip the insert instead.
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (uuid, url, title, text, text_hash, fetched_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM documents WHERE url = ?)
	`, id, doc.URL, doc.Title, doc.Text, hashText(doc.Text), fetchedAt.UTC().Format(time.RFC3339), doc.URL)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	doc.ID = id
	doc.FetchedAt = fetchedAt.UTC().Truncate(time.Second)
	return true, nil
}

// Documents returns every document in insertion order.
func (s *DocumentStore) Documents(ctx context.Context) ([]*siteqa.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uuid, url, title, text, fetched_at
		FROM documents
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*siteqa.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// FindDocumentByURL retrieves a document by its URL.
func (s *DocumentStore) FindDocumentByURL(ctx context.Context, url string) (*siteqa.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uuid, url, title, text, fetched_at
		FROM documents
		WHERE url = ?
	`, url)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, siteqa.Errorf(siteqa.ENOTFOUND, "document not found: %s", url)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Stat returns the document count and the highest id ever assigned.
func (s *DocumentStore) Stat(ctx context.Context) (siteqa.CorpusStat, error) {
	var stat siteqa.CorpusStat
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			COALESCE((SELECT seq FROM sqlite_sequence WHERE name = 'documents'), 0)
	`).Scan(&stat.Count, &stat.Version)
	if err != nil {
		return siteqa.CorpusStat{}, err
	}
	return stat, nil
}

// ClearDocuments removes all documents. Ids keep increasing afterwards.
func (s *DocumentStore) ClearDocuments(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents")
	return err
}

// CountByTextHash returns how many stored documents have exactly text.
func (s *DocumentStore) CountByTextHash(ctx context.Context, text string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE text_hash = ?", hashText(text),
	).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*siteqa.Document, error) {
	var doc siteqa.Document
	var fetchedAt string

	if err := row.Scan(&doc.ID, &doc.URL, &doc.Title, &doc.Text, &fetchedAt); err != nil {
		return nil, err
	}

	var err error
	doc.FetchedAt, err = parseRFC3339(fetchedAt, "fetched_at")
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
