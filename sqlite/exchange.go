package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/siteqa"
)

// Compile-time interface verification.
var _ siteqa.ExchangeService = (*ExchangeService)(nil)

// ExchangeService implements siteqa.ExchangeService using SQLite.
type ExchangeService struct {
	db *DB
}

// NewExchangeService creates a new ExchangeService.
func NewExchangeService(db *DB) *ExchangeService {
	return &ExchangeService{db: db}
}

// CreateExchange stores e and sets its ID and CreatedAt.
func (s *ExchangeService) CreateExchange(ctx context.Context, e *siteqa.Exchange) error {
	if err := e.Validate(); err != nil {
		return err
	}

	createdAt := time.Now().UTC().Truncate(time.Second)
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO exchanges (question, answer, created_at)
		VALUES (?, ?, ?)
	`, e.Question, e.Answer, createdAt.Format(time.RFC3339))
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	e.ID = id
	e.CreatedAt = createdAt
	return nil
}

// FindExchanges returns the most recent exchanges, newest first.
func (s *ExchangeService) FindExchanges(ctx context.Context, limit int) ([]*siteqa.Exchange, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, question, answer, created_at FROM exchanges ORDER BY id DESC")
	appendLimit(&query, &args, limit)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exchanges := []*siteqa.Exchange{}
	for rows.Next() {
		var e siteqa.Exchange
		var createdAt string

		if err := rows.Scan(&e.ID, &e.Question, &e.Answer, &createdAt); err != nil {
			return nil, err
		}

		e.CreatedAt, err = parseRFC3339(createdAt, "created_at")
		if err != nil {
			return nil, err
		}

		exchanges = append(exchanges, &e)
	}

	return exchanges, rows.Err()
}
