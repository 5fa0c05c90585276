package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.Retriever = (*Retriever)(nil)

// Retriever is a mock implementation of siteqa.Retriever.
type Retriever struct {
	RetrieveFn func(ctx context.Context, query string, opts siteqa.RetrieveOptions) ([]siteqa.Passage, error)
	RebuildFn  func(ctx context.Context) (*siteqa.RebuildResult, error)
	StatusFn   func() siteqa.IndexStatus
}

func (r *Retriever) Retrieve(ctx context.Context, query string, opts siteqa.RetrieveOptions) ([]siteqa.Passage, error) {
	return r.RetrieveFn(ctx, query, opts)
}

func (r *Retriever) Rebuild(ctx context.Context) (*siteqa.RebuildResult, error) {
	return r.RebuildFn(ctx)
}

func (r *Retriever) Status() siteqa.IndexStatus {
	return r.StatusFn()
}
