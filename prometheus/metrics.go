// Package prometheus holds the Prometheus collectors for retrieval, index
// builds and crawling, and exposes them for scraping.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing,
// so components can take it as an optional dependency.
type Metrics struct {
	registry *prometheus.Registry

	RetrievalsTotal    *prometheus.CounterVec
	RetrievalLatency   prometheus.Histogram
	RetrievalHits      prometheus.Histogram
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	RebuildsTotal      *prometheus.CounterVec
	RebuildDuration    prometheus.Histogram
	IndexedDocuments   prometheus.Gauge
	IndexedTerms       prometheus.Gauge
	CrawlPagesTotal    *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RetrievalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteqa_retrievals_total",
				Help: "Total retrievals by result (hit, empty, error).",
			},
			[]string{"result"},
		),
		RetrievalLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "siteqa_retrieval_latency_seconds",
				Help:    "Retrieval latency in seconds, including any automatic rebuild.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
			},
		),
		RetrievalHits: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "siteqa_retrieval_passages",
				Help:    "Number of passages returned per retrieval.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "siteqa_retrieval_cache_hits_total",
				Help: "Total retrieval cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "siteqa_retrieval_cache_misses_total",
				Help: "Total retrieval cache misses.",
			},
		),
		RebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteqa_index_rebuilds_total",
				Help: "Total index rebuilds by status (ok, error).",
			},
			[]string{"status"},
		),
		RebuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "siteqa_index_rebuild_duration_seconds",
				Help:    "Index rebuild duration in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		IndexedDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "siteqa_index_documents",
				Help: "Number of documents in the serving index snapshot.",
			},
		),
		IndexedTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "siteqa_index_terms",
				Help: "Vocabulary size of the serving index snapshot.",
			},
		),
		CrawlPagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteqa_crawl_pages_total",
				Help: "Total crawled pages by outcome (stored, duplicate, same_text, skipped, failed).",
			},
			[]string{"outcome"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "siteqa_http_requests_total",
				Help: "Total HTTP API requests by method, path and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "siteqa_http_request_duration_seconds",
				Help:    "HTTP API request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	m.registry.MustRegister(
		m.RetrievalsTotal,
		m.RetrievalLatency,
		m.RetrievalHits,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RebuildsTotal,
		m.RebuildDuration,
		m.IndexedDocuments,
		m.IndexedTerms,
		m.CrawlPagesTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestLatency,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape handler for m's registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRetrieval records one retrieval.
func (m *Metrics) ObserveRetrieval(seconds float64, passages int, err error) {
	if m == nil {
		return
	}
	result := "hit"
	switch {
	case err != nil:
		result = "error"
	case passages == 0:
		result = "empty"
	}
	m.RetrievalsTotal.WithLabelValues(result).Inc()
	m.RetrievalLatency.Observe(seconds)
	if err == nil {
		m.RetrievalHits.Observe(float64(passages))
	}
}

// ObserveCache records a result cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.Inc()
		return
	}
	m.CacheMissesTotal.Inc()
}

// ObserveRebuild records one index rebuild and, on success, the size of the
// new snapshot.
func (m *Metrics) ObserveRebuild(status string, seconds float64, documents, terms int) {
	if m == nil {
		return
	}
	m.RebuildsTotal.WithLabelValues(status).Inc()
	m.RebuildDuration.Observe(seconds)
	if status == "ok" {
		m.IndexedDocuments.Set(float64(documents))
		m.IndexedTerms.Set(float64(terms))
	}
}

// ObserveCrawlPage records the outcome of one crawled page.
func (m *Metrics) ObserveCrawlPage(outcome string) {
	if m == nil {
		return
	}
	m.CrawlPagesTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one HTTP API request.
func (m *Metrics) ObserveHTTP(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusText(status)).Inc()
	m.HTTPRequestLatency.WithLabelValues(method, path).Observe(seconds)
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
