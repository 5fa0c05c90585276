package siteqa

import (
	"context"
	"strings"
	"time"
)

// Asker answers a question using retrieved passages as context.
type Asker interface {
	Ask(ctx context.Context, question string, passages []Passage) (string, error)
}

// Exchange is a question and the answer given to it.
type Exchange struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate returns an error if the exchange contains invalid fields.
func (e *Exchange) Validate() error {
	if e.Question == "" {
		return Errorf(EINVALID, "exchange question required")
	}
	return nil
}

// ExchangeService records question/answer history.
type ExchangeService interface {
	// CreateExchange stores an exchange and sets its ID and CreatedAt.
	CreateExchange(ctx context.Context, e *Exchange) error

	// FindExchanges returns the most recent exchanges, newest first.
	// A non-positive limit returns all of them.
	FindExchanges(ctx context.Context, limit int) ([]*Exchange, error)
}

// NoPassagesAnswer is the answer given when retrieval finds nothing.
const NoPassagesAnswer = "No relevant pages were found for this question."

// Answer is the outcome of asking a question against the corpus.
type Answer struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Passages []Passage `json:"passages"`

	// Fallback is set when no model answered and Answer lists the
	// retrieved passages instead.
	Fallback bool   `json:"fallback,omitempty"`
	AskError string `json:"ask_error,omitempty"`
}

// Ask retrieves passages for question and hands them to asker. When asker is
// nil or fails, the formatted passages become the answer so the caller still
// gets something useful. Only retrieval errors are returned.
func Ask(ctx context.Context, r Retriever, asker Asker, question string, opts RetrieveOptions) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, Errorf(EQUERY, "question required")
	}

	passages, err := r.Retrieve(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	ans := &Answer{Question: question, Passages: passages}
	if len(passages) == 0 {
		ans.Answer = NoPassagesAnswer
		return ans, nil
	}

	if asker != nil {
		text, err := asker.Ask(ctx, question, passages)
		if err == nil {
			ans.Answer = text
			return ans, nil
		}
		ans.AskError = err.Error()
	}

	ans.Fallback = true
	ans.Answer = FormatPassages(passages)
	return ans, nil
}
