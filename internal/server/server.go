package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/doccrawl/internal/crawler"
	"github.com/nao1215/doccrawl/internal/metrics"
	"github.com/nao1215/doccrawl/internal/model"
)

// DefaultBudget is the wall-clock time one scrape request may spend crawling.
const DefaultBudget = 10 * time.Second

// maxRequestBody bounds the size of a scrape request body.
const maxRequestBody = 1 << 20

// Error messages returned to callers.
const (
	msgURLRequired  = "URL is required"
	msgScrapeFailed = "Failed to scrape documentation"
)

// Crawler crawls one seed. *crawler.Spider satisfies it.
type Crawler interface {
	Crawl(ctx context.Context, seed string) (*model.CrawlResult, error)
}

// Factory returns the crawler used for one request. It is called per request,
// so concurrent requests never share crawl state.
type Factory func(seed string) Crawler

// Archive stores finished crawls. *database.CrawlDB satisfies it.
type Archive interface {
	SaveCrawl(ctx context.Context, result *model.CrawlResult) (int64, error)
}

// Server answers scrape requests over HTTP.
type Server struct {
	factory Factory
	budget  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	archive Archive
}

// Option configures a Server.
type Option func(*Server)

// WithBudget sets the per-request crawl budget. Non-positive values keep the default.
func WithBudget(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.budget = d
		}
	}
}

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records crawl outcomes in m and serves it on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithArchive saves every successful crawl to a.
func WithArchive(a Archive) Option {
	return func(s *Server) {
		s.archive = a
	}
}

// New creates a Server that builds a crawler per request with factory.
func New(factory Factory, opts ...Option) *Server {
	s := &Server{
		factory: factory,
		budget:  DefaultBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Handler returns the routes wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/scrape", s.handleScrape)
	mux.HandleFunc("OPTIONS /api/scrape", handlePreflight)
	mux.HandleFunc("GET /healthz", handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.logRequests(withCORS(mux))
}

// ListenAndServe serves Handler on addr until ctx is done, then shuts down
// gracefully, waiting at most for one crawl budget.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.budget+time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type scrapeRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.logger.Debug("undecodable scrape request", "error", err)
		s.observe(metrics.OutcomeInvalid, 0)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgURLRequired})
		return
	}

	if _, err := crawler.ParseSeed(req.URL); err != nil {
		s.observe(metrics.OutcomeInvalid, 0)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.budget)
	defer cancel()

	start := time.Now()
	result, err := s.factory(req.URL).Crawl(ctx, req.URL)
	if err != nil {
		var invalid *crawler.InvalidInputError
		if errors.As(err, &invalid) {
			s.observe(metrics.OutcomeInvalid, time.Since(start))
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalid.Error()})
			return
		}
		s.logger.Error("scrape failed", "url", req.URL, "error", err)
		s.observe(metrics.OutcomeError, time.Since(start))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgScrapeFailed})
		return
	}

	outcome := metrics.OutcomeOK
	if result.Partial {
		outcome = metrics.OutcomePartial
	}
	s.observe(outcome, time.Since(start))

	if s.archive != nil {
		// The request context may already be past its budget.
		if id, err := s.archive.SaveCrawl(context.WithoutCancel(ctx), result); err != nil {
			s.logger.Warn("failed to archive crawl", "url", result.Seed, "error", err)
		} else {
			s.logger.Debug("crawl archived", "id", id, "url", result.Seed)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) observe(outcome string, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveCrawl(outcome, elapsed)
	}
}

func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(http.StatusOK)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) //nolint:errcheck // headers already sent
}
