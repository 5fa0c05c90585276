package siteqa_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAsker verifies Asker interface can be implemented.
type mockAsker struct {
	AskFn func(ctx context.Context, question string, passages []siteqa.Passage) (string, error)
}

func (m *mockAsker) Ask(ctx context.Context, question string, passages []siteqa.Passage) (string, error) {
	return m.AskFn(ctx, question, passages)
}

// Compile-time check that mockAsker implements Asker.
var _ siteqa.Asker = (*mockAsker)(nil)

func TestAsker_CanBeImplemented(t *testing.T) {
	t.Parallel()

	asker := &mockAsker{
		AskFn: func(_ context.Context, question string, passages []siteqa.Passage) (string, error) {
			return "answer to " + question + " from " + passages[0].URL, nil
		},
	}

	answer, err := asker.Ask(context.Background(), "what is this?", []siteqa.Passage{{URL: "https://example.com"}})

	require.NoError(t, err)
	assert.Equal(t, "answer to what is this? from https://example.com", answer)
}

func TestExchange_Validate(t *testing.T) {
	t.Parallel()

	t.Run("requires question", func(t *testing.T) {
		t.Parallel()

		e := &siteqa.Exchange{Answer: "orphan"}
		assert.Equal(t, siteqa.EINVALID, siteqa.ErrorCode(e.Validate()))
	})

	t.Run("accepts empty answer", func(t *testing.T) {
		t.Parallel()

		e := &siteqa.Exchange{Question: "when are exams?"}
		assert.NoError(t, e.Validate())
	})
}

func TestAsk(t *testing.T) {
	t.Parallel()

	passages := []siteqa.Passage{
		{URL: "https://example.com/admissions", Title: "Admissions", Excerpt: "Apply by March.", Score: 0.8},
	}
	retriever := func(got *siteqa.RetrieveOptions) *mock.Retriever {
		return &mock.Retriever{
			RetrieveFn: func(_ context.Context, _ string, opts siteqa.RetrieveOptions) ([]siteqa.Passage, error) {
				if got != nil {
					*got = opts
				}
				return passages, nil
			},
		}
	}

	t.Run("returns the model answer", func(t *testing.T) {
		t.Parallel()

		var opts siteqa.RetrieveOptions
		asker := &mock.Asker{
			AskFn: func(_ context.Context, question string, ps []siteqa.Passage) (string, error) {
				assert.Equal(t, "when do I apply?", question)
				assert.Equal(t, passages, ps)
				return "By March.", nil
			},
		}

		ans, err := siteqa.Ask(context.Background(), retriever(&opts), asker, "when do I apply?", siteqa.RetrieveOptions{K: 3, AutoReindex: true})

		require.NoError(t, err)
		assert.Equal(t, "By March.", ans.Answer)
		assert.False(t, ans.Fallback)
		assert.Equal(t, passages, ans.Passages)
		assert.Equal(t, 3, opts.K)
	})

	t.Run("falls back to passages when the model fails", func(t *testing.T) {
		t.Parallel()

		asker := &mock.Asker{
			AskFn: func(context.Context, string, []siteqa.Passage) (string, error) {
				return "", errors.New("quota exceeded")
			},
		}

		ans, err := siteqa.Ask(context.Background(), retriever(nil), asker, "when do I apply?", siteqa.RetrieveOptions{K: 3})

		require.NoError(t, err)
		assert.True(t, ans.Fallback)
		assert.Equal(t, "quota exceeded", ans.AskError)
		assert.Equal(t, "Admissions - https://example.com/admissions\nApply by March.", ans.Answer)
	})

	t.Run("falls back to passages without a model", func(t *testing.T) {
		t.Parallel()

		ans, err := siteqa.Ask(context.Background(), retriever(nil), nil, "when do I apply?", siteqa.RetrieveOptions{K: 3})

		require.NoError(t, err)
		assert.True(t, ans.Fallback)
		assert.Empty(t, ans.AskError)
	})

	t.Run("no passages skips the model", func(t *testing.T) {
		t.Parallel()

		r := &mock.Retriever{
			RetrieveFn: func(context.Context, string, siteqa.RetrieveOptions) ([]siteqa.Passage, error) {
				return []siteqa.Passage{}, nil
			},
		}
		asker := &mock.Asker{
			AskFn: func(context.Context, string, []siteqa.Passage) (string, error) {
				t.Fatal("asker must not be called")
				return "", nil
			},
		}

		ans, err := siteqa.Ask(context.Background(), r, asker, "anything", siteqa.RetrieveOptions{K: 3})

		require.NoError(t, err)
		assert.Equal(t, siteqa.NoPassagesAnswer, ans.Answer)
		assert.False(t, ans.Fallback)
	})

	t.Run("blank question is EQUERY", func(t *testing.T) {
		t.Parallel()

		_, err := siteqa.Ask(context.Background(), retriever(nil), nil, "  ", siteqa.RetrieveOptions{K: 3})

		assert.Equal(t, siteqa.EQUERY, siteqa.ErrorCode(err))
	})

	t.Run("retrieval errors are returned", func(t *testing.T) {
		t.Parallel()

		r := &mock.Retriever{
			RetrieveFn: func(context.Context, string, siteqa.RetrieveOptions) ([]siteqa.Passage, error) {
				return nil, siteqa.Errorf(siteqa.EQUERY, "k must be positive, got 0")
			},
		}

		_, err := siteqa.Ask(context.Background(), r, nil, "anything", siteqa.RetrieveOptions{})

		assert.Equal(t, siteqa.EQUERY, siteqa.ErrorCode(err))
	})
}
