package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/siteqa/mock"
	siteqaslog "github.com/fwojciec/siteqa/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs size of fetched page at debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				return "<html>content</html>", nil
			},
		}

		html, err := siteqaslog.NewLoggingFetcher(inner, debugLogger(&buf)).
			Fetch(context.Background(), "https://uni.test/admissions")

		require.NoError(t, err)
		assert.Equal(t, "<html>content</html>", html)
		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), "url=https://uni.test/admissions")
		assert.Contains(t, buf.String(), "bytes=20")
	})

	t.Run("logs and returns the error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		fetchErr := errors.New("network error")
		inner := &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) {
				return "", fetchErr
			},
		}

		_, err := siteqaslog.NewLoggingFetcher(inner, debugLogger(&buf)).
			Fetch(context.Background(), "https://uni.test/admissions")

		require.ErrorIs(t, err, fetchErr)
		assert.Contains(t, buf.String(), `err="network error"`)
	})

	t.Run("stays quiet above debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) { return "<html></html>", nil },
		}

		_, err := siteqaslog.NewLoggingFetcher(inner, slog.New(slog.NewTextHandler(&buf, nil))).
			Fetch(context.Background(), "https://uni.test/")

		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})

	t.Run("accepts a nil logger", func(t *testing.T) {
		t.Parallel()

		inner := &mock.Fetcher{
			FetchFn: func(context.Context, string) (string, error) { return "<html></html>", nil },
		}

		_, err := siteqaslog.NewLoggingFetcher(inner, nil).Fetch(context.Background(), "https://uni.test/")

		require.NoError(t, err)
	})
}

func TestLoggingFetcher_Close(t *testing.T) {
	t.Parallel()

	closed := false
	inner := &mock.Fetcher{
		CloseFn: func() error {
			closed = true
			return nil
		},
	}

	require.NoError(t, siteqaslog.NewLoggingFetcher(inner, nil).Close())
	assert.True(t, closed)
}
