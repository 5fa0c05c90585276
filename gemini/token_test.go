package gemini_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCounter_CountTokens(t *testing.T) {
	t.Parallel()

	tc, err := gemini.NewTokenCounter(gemini.DefaultModel)
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("empty text has no tokens", func(t *testing.T) {
		t.Parallel()

		count, err := tc.CountTokens(ctx, "")

		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("count grows with text", func(t *testing.T) {
		t.Parallel()

		short, err := tc.CountTokens(ctx, "Admissions")
		require.NoError(t, err)
		assert.Positive(t, short)

		long, err := tc.CountTokens(ctx, "Applications for undergraduate admissions open in May and close at the end of June.")
		require.NoError(t, err)
		assert.Greater(t, long, short)
	})

	t.Run("bounds passages for the asker", func(t *testing.T) {
		t.Parallel()

		passages := []siteqa.Passage{
			{URL: "https://uni.test/a", Excerpt: "Tuition is due in September."},
			{URL: "https://uni.test/b", Excerpt: strings.Repeat("housing ", 500)},
		}

		first, err := tc.CountTokens(ctx, siteqa.FormatPassages(passages[:1]))
		require.NoError(t, err)

		got, err := gemini.FitPassages(ctx, tc, passages, first+10)

		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestTokenCounter_IncludesSystemInstruction(t *testing.T) {
	t.Parallel()

	tc, err := gemini.NewTokenCounter("")
	require.NoError(t, err)

	assert.Equal(t, gemini.DefaultModel, tc.Model())
	assert.Positive(t, tc.Overhead())

	count, err := tc.CountTokens(context.Background(), "Admissions")

	require.NoError(t, err)
	assert.Greater(t, count, tc.Overhead())
}

func TestTokenCounter_CancelledContext(t *testing.T) {
	t.Parallel()

	tc, err := gemini.NewTokenCounter(gemini.DefaultModel)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = tc.CountTokens(ctx, "Admissions")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTokenCounter_UnknownModel(t *testing.T) {
	t.Parallel()

	_, err := gemini.NewTokenCounter("not-a-model")

	assert.Equal(t, siteqa.EINVALID, siteqa.ErrorCode(err))
}
