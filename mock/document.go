package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is a mock implementation of siteqa.DocumentStore.
type DocumentStore struct {
	AddDocumentFn       func(ctx context.Context, doc *siteqa.Document) (bool, error)
	DocumentsFn         func(ctx context.Context) ([]*siteqa.Document, error)
	FindDocumentByURLFn func(ctx context.Context, url string) (*siteqa.Document, error)
	StatFn              func(ctx context.Context) (siteqa.CorpusStat, error)
	ClearDocumentsFn    func(ctx context.Context) error
}

func (s *DocumentStore) AddDocument(ctx context.Context, doc *siteqa.Document) (bool, error) {
	return s.AddDocumentFn(ctx, doc)
}

func (s *DocumentStore) Documents(ctx context.Context) ([]*siteqa.Document, error) {
	return s.DocumentsFn(ctx)
}

func (s *DocumentStore) FindDocumentByURL(ctx context.Context, url string) (*siteqa.Document, error) {
	return s.FindDocumentByURLFn(ctx, url)
}

func (s *DocumentStore) Stat(ctx context.Context) (siteqa.CorpusStat, error) {
	return s.StatFn(ctx)
}

func (s *DocumentStore) ClearDocuments(ctx context.Context) error {
	return s.ClearDocumentsFn(ctx)
}
