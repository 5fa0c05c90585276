package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteqa"
)

// Ensure LoggingDocumentStore implements siteqa.DocumentStore.
var _ siteqa.DocumentStore = (*LoggingDocumentStore)(nil)

// LoggingDocumentStore wraps a DocumentStore with debug logging of writes.
// Reads are delegated without logging.
type LoggingDocumentStore struct {
	next   siteqa.DocumentStore
	logger *slog.Logger
}

// NewLoggingDocumentStore creates a new LoggingDocumentStore.
func NewLoggingDocumentStore(next siteqa.DocumentStore, logger *slog.Logger) *LoggingDocumentStore {
	return &LoggingDocumentStore{next: next, logger: orDiscard(logger)}
}

// AddDocument delegates to the wrapped store and logs whether the document
// was new.
func (s *LoggingDocumentStore) AddDocument(ctx context.Context, doc *siteqa.Document) (inserted bool, err error) {
	defer func(begin time.Time) {
		s.logger.DebugContext(ctx, "add document",
			"url", doc.URL,
			"inserted", inserted,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.AddDocument(ctx, doc)
}

func (s *LoggingDocumentStore) Documents(ctx context.Context) ([]*siteqa.Document, error) {
	return s.next.Documents(ctx)
}

func (s *LoggingDocumentStore) FindDocumentByURL(ctx context.Context, url string) (*siteqa.Document, error) {
	return s.next.FindDocumentByURL(ctx, url)
}

func (s *LoggingDocumentStore) Stat(ctx context.Context) (siteqa.CorpusStat, error) {
	return s.next.Stat(ctx)
}

// ClearDocuments delegates to the wrapped store and logs the operation.
func (s *LoggingDocumentStore) ClearDocuments(ctx context.Context) (err error) {
	defer func() {
		s.logger.InfoContext(ctx, "clear documents", "err", err)
	}()
	return s.next.ClearDocuments(ctx)
}
