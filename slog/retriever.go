package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteqa"
)

// Ensure LoggingRetriever implements siteqa.Retriever.
var _ siteqa.Retriever = (*LoggingRetriever)(nil)

// LoggingRetriever wraps a Retriever with logging of queries and rebuilds.
type LoggingRetriever struct {
	next   siteqa.Retriever
	logger *slog.Logger
}

// NewLoggingRetriever creates a new LoggingRetriever.
func NewLoggingRetriever(next siteqa.Retriever, logger *slog.Logger) *LoggingRetriever {
	return &LoggingRetriever{next: next, logger: orDiscard(logger)}
}

// Retrieve delegates to the wrapped retriever and logs the query.
func (r *LoggingRetriever) Retrieve(ctx context.Context, query string, opts siteqa.RetrieveOptions) (passages []siteqa.Passage, err error) {
	defer func(begin time.Time) {
		r.logger.InfoContext(ctx, "retrieve",
			"query", query,
			"k", opts.K,
			"hits", len(passages),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Retrieve(ctx, query, opts)
}

// Rebuild delegates to the wrapped retriever and logs the outcome.
func (r *LoggingRetriever) Rebuild(ctx context.Context) (result *siteqa.RebuildResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{"duration", time.Since(begin), "err", err}
		if result != nil {
			attrs = append(attrs, "status", result.Status, "documents", result.DocumentsIndexed)
		}
		r.logger.InfoContext(ctx, "rebuild", attrs...)
	}(time.Now())
	return r.next.Rebuild(ctx)
}

// Status delegates to the wrapped retriever.
func (r *LoggingRetriever) Status() siteqa.IndexStatus {
	return r.next.Status()
}
