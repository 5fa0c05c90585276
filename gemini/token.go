package gemini

import (
	"context"
	"fmt"

	"github.com/fwojciec/siteqa"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ Counter = (*TokenCounter)(nil)

// TokenCounter counts tokens locally with the Gemini tokenizer. Counts
// include the system instruction Ask sends, so MaxContextTokens bounds what
// the model actually reads.
type TokenCounter struct {
	tok         *tokenizer.LocalTokenizer
	model       string
	instruction *genai.Content
	overhead    int
}

// NewTokenCounter loads the tokenizer for model. An empty model selects
// DefaultModel. Returns EINVALID if no local tokenizer exists for the model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	if model == "" {
		model = DefaultModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, siteqa.Errorf(siteqa.EINVALID, "no local tokenizer for model %q: %v", model, err)
	}

	tc := &TokenCounter{
		tok:         tok,
		model:       model,
		instruction: BuildConfig().SystemInstruction,
	}
	res, err := tok.CountTokens([]*genai.Content{tc.instruction}, nil)
	if err != nil {
		return nil, fmt.Errorf("counting system instruction: %w", err)
	}
	tc.overhead = int(res.TotalTokens)
	return tc, nil
}

// Model returns the model whose tokenizer is loaded.
func (tc *TokenCounter) Model() string { return tc.model }

// Overhead returns the tokens spent on the system instruction alone.
func (tc *TokenCounter) Overhead() int { return tc.overhead }

// CountTokens returns the tokens of text sent as a user turn, system
// instruction included. Empty text costs nothing because it is never sent.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if text == "" {
		return 0, nil
	}

	res, err := tc.tok.CountTokens(
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.CountTokensConfig{SystemInstruction: tc.instruction},
	)
	if err != nil {
		return 0, fmt.Errorf("counting tokens for %s: %w", tc.model, err)
	}
	return int(res.TotalTokens), nil
}
