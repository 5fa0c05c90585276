// Package gemini answers questions with Google Gemini, using retrieved
// passages as context.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/siteqa"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// Ensure Asker implements siteqa.Asker at compile time.
var _ siteqa.Asker = (*Asker)(nil)

// Counter counts model tokens in text.
type Counter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Asker implements siteqa.Asker using Google Gemini.
type Asker struct {
	client *genai.Client

	// Model defaults to DefaultModel.
	Model string

	// Counter and MaxContextTokens, when both set, drop the lowest-ranked
	// passages until the context fits the budget.
	Counter          Counter
	MaxContextTokens int
}

// NewAsker creates a new Asker.
func NewAsker(client *genai.Client) *Asker {
	return &Asker{client: client, Model: DefaultModel}
}

// Ask answers question from passages.
func (a *Asker) Ask(ctx context.Context, question string, passages []siteqa.Passage) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", siteqa.Errorf(siteqa.EINVALID, "question required")
	}
	if len(passages) == 0 {
		return "", siteqa.Errorf(siteqa.ENOTFOUND, "no passages to answer from")
	}
	if a.client == nil {
		return "", siteqa.Errorf(siteqa.EINVALID, "gemini client not configured")
	}

	if a.Counter != nil && a.MaxContextTokens > 0 {
		fitted, err := FitPassages(ctx, a.Counter, passages, a.MaxContextTokens)
		if err != nil {
			return "", fmt.Errorf("counting context tokens: %w", err)
		}
		passages = fitted
	}

	model := a.Model
	if model == "" {
		model = DefaultModel
	}

	result, err := a.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildUserPrompt(passages, question)}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", siteqa.Errorf(siteqa.EINTERNAL, "gemini returned nil result")
	}

	answer := strings.TrimSpace(result.Text())
	if answer == "" {
		return "", siteqa.Errorf(siteqa.EINTERNAL, "gemini returned an empty answer")
	}
	return answer, nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.5)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You answer questions about a web site using the pages provided. " +
					"Cite the URL of every page you rely on. " +
					"If the pages do not contain the answer, say so.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt containing the passages and question.
func BuildUserPrompt(passages []siteqa.Passage, question string) string {
	var sb strings.Builder
	sb.WriteString("Pages from the site:\n\n")
	sb.WriteString(siteqa.FormatPassages(passages))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}

// FitPassages returns the longest prefix of passages whose formatted context
// stays within maxTokens. At least one passage is always kept.
func FitPassages(ctx context.Context, counter Counter, passages []siteqa.Passage, maxTokens int) ([]siteqa.Passage, error) {
	for n := len(passages); n > 1; n-- {
		tokens, err := counter.CountTokens(ctx, siteqa.FormatPassages(passages[:n]))
		if err != nil {
			return nil, err
		}
		if tokens <= maxTokens {
			return passages[:n], nil
		}
	}
	return passages[:min(1, len(passages))], nil
}
