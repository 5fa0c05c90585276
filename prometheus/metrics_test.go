package prometheus_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/siteqa/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRetrieval(t *testing.T) {
	t.Parallel()

	m := prometheus.New()

	m.ObserveRetrieval(0.01, 3, nil)
	m.ObserveRetrieval(0.01, 0, nil)
	m.ObserveRetrieval(0.01, 0, errors.New("boom"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.RetrievalsTotal.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RetrievalsTotal.WithLabelValues("empty")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RetrievalsTotal.WithLabelValues("error")), 0)
}

func TestMetrics_ObserveRebuild(t *testing.T) {
	t.Parallel()

	m := prometheus.New()

	m.ObserveRebuild("ok", 0.5, 12, 340)
	m.ObserveRebuild("error", 0.1, 0, 0)

	assert.InDelta(t, 12, testutil.ToFloat64(m.IndexedDocuments), 0)
	assert.InDelta(t, 340, testutil.ToFloat64(m.IndexedTerms), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RebuildsTotal.WithLabelValues("error")), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *prometheus.Metrics

	assert.NotPanics(t, func() {
		m.ObserveRetrieval(1, 1, nil)
		m.ObserveCache(true)
		m.ObserveRebuild("ok", 1, 1, 1)
		m.ObserveCrawlPage("stored")
		m.ObserveHTTP("GET", "/", 200, 1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := prometheus.New()
	m.ObserveCrawlPage("stored")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `siteqa_crawl_pages_total{outcome="stored"} 1`)
}
