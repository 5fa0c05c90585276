package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.Asker = (*Asker)(nil)

// Asker is a mock implementation of siteqa.Asker.
type Asker struct {
	AskFn func(ctx context.Context, question string, passages []siteqa.Passage) (string, error)
}

func (a *Asker) Ask(ctx context.Context, question string, passages []siteqa.Passage) (string, error) {
	return a.AskFn(ctx, question, passages)
}

var _ siteqa.ExchangeService = (*ExchangeService)(nil)

// ExchangeService is a mock implementation of siteqa.ExchangeService.
type ExchangeService struct {
	CreateExchangeFn func(ctx context.Context, e *siteqa.Exchange) error
	FindExchangesFn  func(ctx context.Context, limit int) ([]*siteqa.Exchange, error)
}

func (s *ExchangeService) CreateExchange(ctx context.Context, e *siteqa.Exchange) error {
	return s.CreateExchangeFn(ctx, e)
}

func (s *ExchangeService) FindExchanges(ctx context.Context, limit int) ([]*siteqa.Exchange, error) {
	return s.FindExchangesFn(ctx, limit)
}
