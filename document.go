package siteqa

import (
	"context"
	"net/url"
	"time"
)

// Document represents a crawled page. Documents are keyed by URL and never
// change after they are stored; they only disappear when the corpus is cleared.
type Document struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.URL == "" {
		return Errorf(EINGEST, "document URL required")
	}
	return ValidateURL(d.URL)
}

// ValidateURL returns EINGEST unless rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Errorf(EINGEST, "malformed URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(EINGEST, "unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return Errorf(EINGEST, "URL %q has no host", rawURL)
	}
	return nil
}

// CorpusStat describes the corpus at a point in time.
type CorpusStat struct {
	// Count is the number of stored documents.
	Count int `json:"count"`

	// Version grows with every insert and is never reused, so clearing the
	// corpus and re-adding the same number of documents still changes it.
	Version int64 `json:"version"`
}

// DocumentStore holds page text keyed by source URL.
// It is append-only with URL-based deduplication.
type DocumentStore interface {
	// AddDocument stores a new document. Returns false without error if a
	// document with the same URL already exists.
	AddDocument(ctx context.Context, doc *Document) (bool, error)

	// Documents returns every document in insertion order as one consistent read.
	Documents(ctx context.Context) ([]*Document, error)

	// FindDocumentByURL retrieves a document by its URL.
	// Returns ENOTFOUND if document does not exist.
	FindDocumentByURL(ctx context.Context, url string) (*Document, error)

	// Stat returns the document count and corpus version.
	Stat(ctx context.Context) (CorpusStat, error)

	// ClearDocuments removes all documents.
	ClearDocuments(ctx context.Context) error
}
