package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/prometheus"
)

// DefaultHistoryLimit is the number of exchanges /api/history returns when
// the request does not say.
const DefaultHistoryLimit = 50

// maxRequestBytes bounds JSON request bodies.
const maxRequestBytes = 1 << 20

// Server exposes crawling, indexing and retrieval as a JSON API.
//
// Routes:
//
//	POST /api/crawl/start   start a background crawl
//	GET  /api/crawl/status  background crawl status
//	POST /api/crawl/stop    stop the background crawl
//	POST /api/reindex       rebuild the index
//	GET  /api/index/status  installed snapshot
//	POST /api/retrieve      ranked passages for a query
//	POST /api/ask           answer a question from retrieved passages
//	GET  /api/history       recent questions and answers
//	GET  /metrics           Prometheus metrics
type Server struct {
	Crawler   siteqa.Crawler
	Retriever siteqa.Retriever

	// Asker is optional; without it /api/ask answers with passages.
	Asker siteqa.Asker

	// Exchanges is optional; without it nothing is recorded and
	// /api/history is empty.
	Exchanges siteqa.ExchangeService

	Metrics *prometheus.Metrics
	Logger  *slog.Logger

	// DefaultK is used when a request leaves k unset.
	DefaultK int
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/crawl/start", s.handleCrawlStart)
	mux.HandleFunc("GET /api/crawl/status", s.handleCrawlStatus)
	mux.HandleFunc("POST /api/crawl/stop", s.handleCrawlStop)

	mux.HandleFunc("POST /api/reindex", s.handleReindex)
	mux.HandleFunc("GET /api/index/status", s.handleIndexStatus)

	mux.HandleFunc("POST /api/retrieve", s.handleRetrieve)
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	mux.Handle("GET /metrics", s.Metrics.Handler())

	return s.instrument(mux)
}

// ListenAndServe serves the API on addr until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger().Info("api listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger().Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type crawlStartRequest struct {
	StartURL   string   `json:"start_url"`
	MaxPages   int      `json:"max_pages"`
	Delay      *float64 `json:"delay"` // seconds between fetches
	Domain     string   `json:"domain"`
	UseSitemap bool     `json:"use_sitemap"`
}

type crawlResponse struct {
	Message string             `json:"message,omitempty"`
	Status  siteqa.CrawlStatus `json:"status"`
}

func (s *Server) handleCrawlStart(w http.ResponseWriter, r *http.Request) {
	var body crawlStartRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	req := siteqa.CrawlRequest{
		StartURL:   body.StartURL,
		MaxPages:   body.MaxPages,
		Delay:      siteqa.DefaultCrawlDelay,
		Domain:     body.Domain,
		UseSitemap: body.UseSitemap,
	}
	if req.MaxPages == 0 {
		req.MaxPages = siteqa.DefaultMaxPages
	}
	if body.Delay != nil {
		req.Delay = time.Duration(*body.Delay * float64(time.Second))
	}

	if err := s.Crawler.Start(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, crawlResponse{Message: "crawl started", Status: s.Crawler.Status()})
}

func (s *Server) handleCrawlStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Crawler.Status())
}

func (s *Server) handleCrawlStop(w http.ResponseWriter, r *http.Request) {
	s.Crawler.Stop()
	writeJSON(w, http.StatusOK, crawlResponse{Message: "stop signal sent", Status: s.Crawler.Status()})
}

// rebuildErrorResponse carries the rebuild outcome alongside the error.
type rebuildErrorResponse struct {
	siteqa.RebuildResult
	errorResponse
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	result, err := s.Retriever.Rebuild(r.Context())
	if err != nil {
		body := rebuildErrorResponse{
			RebuildResult: siteqa.RebuildResult{Status: siteqa.RebuildError},
			errorResponse: errorResponse{Code: siteqa.ErrorCode(err), Error: siteqa.ErrorMessage(err)},
		}
		if result != nil {
			body.DocumentsIndexed = result.DocumentsIndexed
		}
		writeJSON(w, s.errorStatus(r, err), body)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Retriever.Status())
}

type retrieveRequest struct {
	Query     string  `json:"query"`
	K         int     `json:"k"`
	NoReindex bool    `json:"no_reindex"`
	MinScore  float64 `json:"min_score"`
}

func (req retrieveRequest) options(defaultK int) siteqa.RetrieveOptions {
	k := req.K
	if k == 0 {
		k = defaultK
	}
	return siteqa.RetrieveOptions{K: k, AutoReindex: !req.NoReindex, MinScore: req.MinScore}
}

type retrieveResponse struct {
	Query    string           `json:"query"`
	Passages []siteqa.Passage `json:"passages"`
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var body retrieveRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	passages, err := s.Retriever.Retrieve(r.Context(), body.Query, body.options(s.defaultK()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if passages == nil {
		passages = []siteqa.Passage{}
	}

	writeJSON(w, http.StatusOK, retrieveResponse{Query: body.Query, Passages: passages})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var body retrieveRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	ans, err := siteqa.Ask(r.Context(), s.Retriever, s.Asker, body.Query, body.options(s.defaultK()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ans.AskError != "" {
		s.logger().WarnContext(r.Context(), "answer generation failed, replying with passages", "error", ans.AskError)
	}

	if s.Exchanges != nil {
		ex := &siteqa.Exchange{Question: ans.Question, Answer: ans.Answer}
		if err := s.Exchanges.CreateExchange(r.Context(), ex); err != nil {
			s.logger().ErrorContext(r.Context(), "recording exchange failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, ans)
}

type historyResponse struct {
	History []*siteqa.Exchange `json:"history"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, siteqa.Errorf(siteqa.EINVALID, "invalid limit %q", v))
			return
		}
		limit = n
	}

	history := []*siteqa.Exchange{}
	if s.Exchanges != nil {
		found, err := s.Exchanges.FindExchanges(r.Context(), limit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if found != nil {
			history = found
		}
	}

	writeJSON(w, http.StatusOK, historyResponse{History: history})
}

// instrument records request count and latency per route.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		s.Metrics.ObserveHTTP(r.Method, routeLabel(r.URL.Path), sw.status, time.Since(start).Seconds())
	})
}

// routes lists the served paths; anything else is labeled "other" to keep
// metric cardinality bounded.
var routes = map[string]bool{
	"/api/crawl/start":  true,
	"/api/crawl/status": true,
	"/api/crawl/stop":   true,
	"/api/reindex":      true,
	"/api/index/status": true,
	"/api/retrieve":     true,
	"/api/ask":          true,
	"/api/history":      true,
	"/metrics":          true,
}

func routeLabel(path string) string {
	if routes[path] {
		return path
	}
	return "other"
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	return sw.ResponseWriter.Write(b)
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// statusByCode maps application error codes to HTTP status codes.
var statusByCode = map[string]int{
	siteqa.EINVALID:  http.StatusBadRequest,
	siteqa.EQUERY:    http.StatusBadRequest,
	siteqa.EINGEST:   http.StatusBadRequest,
	siteqa.ENOTFOUND: http.StatusNotFound,
	siteqa.ECONFLICT: http.StatusConflict,
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := s.errorStatus(r, err)
	writeJSON(w, status, errorResponse{Code: siteqa.ErrorCode(err), Error: siteqa.ErrorMessage(err)})
}

// errorStatus returns the HTTP status for err, logging server errors.
func (s *Server) errorStatus(r *http.Request, err error) int {
	status, ok := statusByCode[siteqa.ErrorCode(err)]
	if !ok {
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		s.logger().ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	return status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into v. An empty body leaves v
// untouched.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return siteqa.Errorf(siteqa.EINVALID, "invalid JSON body: %v", err)
	}
	return nil
}

func (s *Server) defaultK() int {
	if s.DefaultK > 0 {
		return s.DefaultK
	}
	return siteqa.DefaultK
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}
