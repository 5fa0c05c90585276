package siteqa_test

import (
	"testing"
	"time"

	"github.com/fwojciec/siteqa"
	"github.com/stretchr/testify/assert"
)

func TestCrawlRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  siteqa.CrawlRequest
		code string
	}{
		{"valid", siteqa.CrawlRequest{StartURL: "https://example.com", MaxPages: 10}, ""},
		{"missing start url", siteqa.CrawlRequest{MaxPages: 10}, siteqa.EINGEST},
		{"relative start url", siteqa.CrawlRequest{StartURL: "/docs", MaxPages: 10}, siteqa.EINGEST},
		{"ftp start url", siteqa.CrawlRequest{StartURL: "ftp://example.com", MaxPages: 10}, siteqa.EINGEST},
		{"zero max pages", siteqa.CrawlRequest{StartURL: "https://example.com"}, siteqa.EINVALID},
		{"negative delay", siteqa.CrawlRequest{StartURL: "https://example.com", MaxPages: 1, Delay: -time.Second}, siteqa.EINVALID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.code, siteqa.ErrorCode(tt.req.Validate()))
		})
	}
}

func TestCrawlRequest_ScopeDomain(t *testing.T) {
	t.Parallel()

	t.Run("defaults to start url host", func(t *testing.T) {
		t.Parallel()

		req := siteqa.CrawlRequest{StartURL: "https://WWW.Example.com:8080/docs"}
		assert.Equal(t, "www.example.com", req.ScopeDomain())
	})

	t.Run("uses explicit domain", func(t *testing.T) {
		t.Parallel()

		req := siteqa.CrawlRequest{StartURL: "https://www.example.com", Domain: "Example.com"}
		assert.Equal(t, "example.com", req.ScopeDomain())
	})
}

func TestInScope(t *testing.T) {
	t.Parallel()

	assert.True(t, siteqa.InScope("https://example.com/a", "example.com"))
	assert.True(t, siteqa.InScope("https://docs.example.com/a", "example.com"))
	assert.False(t, siteqa.InScope("https://notexample.com/a", "example.com"))
	assert.False(t, siteqa.InScope("mailto:info@example.com", "example.com"))
	assert.False(t, siteqa.InScope("https://other.org/a", "example.com"))
}
