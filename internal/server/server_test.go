package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/doccrawl/internal/crawler"
	"github.com/nao1215/doccrawl/internal/metrics"
	"github.com/nao1215/doccrawl/internal/model"
)

// stubCrawler returns a fixed result or error.
type stubCrawler struct {
	result *model.CrawlResult
	err    error
	calls  *atomic.Int32
}

func (c stubCrawler) Crawl(_ context.Context, seed string) (*model.CrawlResult, error) {
	if c.calls != nil {
		c.calls.Add(1)
	}
	if c.err != nil {
		return nil, c.err
	}
	if c.result != nil {
		return c.result, nil
	}
	return model.NewCrawlResult(seed, nil), nil
}

type memoryArchive struct {
	mu    sync.Mutex
	saved []*model.CrawlResult
}

func (a *memoryArchive) SaveCrawl(_ context.Context, result *model.CrawlResult) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.saved = append(a.saved, result)
	return int64(len(a.saved)), nil
}

func postScrape(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return resp.Error
}

func TestHandleScrapeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{name: "missing url", body: `{}`, expected: "URL is required"},
		{name: "empty url", body: `{"url":""}`, expected: "URL is required"},
		{name: "blank url", body: `{"url":"   "}`, expected: "URL is required"},
		{name: "undecodable body", body: `{"url":`, expected: "URL is required"},
		{name: "non-string url", body: `{"url":42}`, expected: "URL is required"},
		{name: "relative url", body: `{"url":"docs/intro"}`, expected: "Invalid URL format"},
		{name: "ftp url", body: `{"url":"ftp://example.com/"}`, expected: "Invalid URL format"},
		{name: "garbage", body: `{"url":"not a url"}`, expected: "Invalid URL format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := New(func(string) Crawler { return stubCrawler{calls: &calls} })
			rec := postScrape(t, srv.Handler(), tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
			if got := decodeError(t, rec); got != tt.expected {
				t.Errorf("expected error %q, got %q", tt.expected, got)
			}
			if calls.Load() != 0 {
				t.Error("expected no crawl for invalid input")
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("expected CORS header, got %q", got)
			}
		})
	}
}

func TestHandleScrapeSuccess(t *testing.T) {
	t.Parallel()

	result := model.NewCrawlResult("https://docs.example.com/", []model.Page{
		{URL: "https://docs.example.com/", Title: "Home", Content: "hello"},
		{URL: "https://docs.example.com/install", Title: "Install", Content: "world"},
	})
	srv := New(func(string) Crawler { return stubCrawler{result: result} })

	rec := postScrape(t, srv.Handler(), `{"url":"https://docs.example.com/"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %q", ct)
	}

	var body struct {
		Pages      []model.Page `json:"pages"`
		TotalPages int          `json:"totalPages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.TotalPages != 2 || len(body.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d/%d", body.TotalPages, len(body.Pages))
	}
	if body.Pages[1].Title != "Install" {
		t.Errorf("expected second page Install, got %q", body.Pages[1].Title)
	}
}

func TestHandleScrapeEmptyResult(t *testing.T) {
	t.Parallel()

	srv := New(func(string) Crawler { return stubCrawler{} })
	rec := postScrape(t, srv.Handler(), `{"url":"https://docs.example.com/"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"pages":[],"totalPages":0}` {
		t.Errorf("expected empty array body, got %s", got)
	}
}

func TestHandleScrapeFailure(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	crawlErr := &crawler.UnexpectedError{URL: "https://docs.example.com/", Err: errors.New("boom")}
	srv := New(func(string) Crawler { return stubCrawler{err: crawlErr} }, WithMetrics(m))

	rec := postScrape(t, srv.Handler(), `{"url":"https://docs.example.com/"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got != "Failed to scrape documentation" {
		t.Errorf("expected generic failure message, got %q", got)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("internal error detail leaked to caller")
	}

	gathered, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	found := false
	for _, mf := range gathered {
		if mf.GetName() != "doccrawl_crawls_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetValue() == metrics.OutcomeError && metric.GetCounter().GetValue() == 1 {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected one error outcome to be recorded")
	}
}

func TestPreflight(t *testing.T) {
	t.Parallel()

	srv := New(func(string) Crawler { return stubCrawler{} })
	req := httptest.NewRequest(http.MethodOptions, "/api/scrape", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	for header, want := range map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s: expected %q, got %q", header, want, got)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := New(func(string) Crawler { return stubCrawler{} })
	req := httptest.NewRequest(http.MethodGet, "/api/scrape", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected CORS header on 405, got %q", got)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := New(func(string) Crawler { return stubCrawler{} })
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("expected 200 ok, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("served when configured", func(t *testing.T) {
		t.Parallel()

		m := metrics.New()
		srv := New(func(string) Crawler { return stubCrawler{} }, WithMetrics(m))
		handler := srv.Handler()

		postScrape(t, handler, `{"url":"https://docs.example.com/"}`)
		postScrape(t, handler, `{"url":""}`)

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{
			`doccrawl_crawls_total{outcome="ok"} 1`,
			`doccrawl_crawls_total{outcome="invalid"} 1`,
		} {
			if !strings.Contains(body, want) {
				t.Errorf("expected metrics to contain %q", want)
			}
		}
	})

	t.Run("absent otherwise", func(t *testing.T) {
		t.Parallel()

		srv := New(func(string) Crawler { return stubCrawler{} })
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestArchive(t *testing.T) {
	t.Parallel()

	archive := &memoryArchive{}
	srv := New(func(string) Crawler { return stubCrawler{} }, WithArchive(archive))
	handler := srv.Handler()

	postScrape(t, handler, `{"url":"https://docs.example.com/"}`)
	postScrape(t, handler, `{"url":"bad"}`)

	archive.mu.Lock()
	defer archive.mu.Unlock()
	if len(archive.saved) != 1 {
		t.Fatalf("expected 1 archived crawl, got %d", len(archive.saved))
	}
	if archive.saved[0].Seed != "https://docs.example.com/" {
		t.Errorf("unexpected archived seed %s", archive.saved[0].Seed)
	}
}

// docSite serves a small documentation site whose pages slow down after
// the first one.
func docSite(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()

	prose := strings.Repeat("This paragraph explains how the tool is configured. ", 5)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		links := ""
		for i := range 3 {
			links += fmt.Sprintf(`<a href="/guide/%d">Guide %d</a>`, i, i)
		}
		fmt.Fprintf(w, `<html><head><title>Docs</title></head><body><main><h1>Page %s</h1><p>%s</p>%s</main></body></html>`,
			r.URL.Path, prose, links)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestScrapeWithSpider(t *testing.T) {
	t.Parallel()

	site := docSite(t, 0)
	srv := New(func(string) Crawler { return crawler.NewSpider(site.Client()) })

	rec := postScrape(t, srv.Handler(), fmt.Sprintf(`{"url":%q}`, site.URL))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result model.CrawlResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if result.TotalPages != 4 || len(result.Pages) != 4 {
		t.Fatalf("expected 4 pages, got %d/%d", result.TotalPages, len(result.Pages))
	}
	if result.Pages[0].Title != "Page /" {
		t.Errorf("expected seed page first, got %q", result.Pages[0].Title)
	}
}

func TestScrapeBudgetReturnsPartialResult(t *testing.T) {
	t.Parallel()

	site := docSite(t, 2*time.Second)
	m := metrics.New()
	srv := New(
		func(string) Crawler { return crawler.NewSpider(site.Client()) },
		WithBudget(200*time.Millisecond),
		WithMetrics(m),
	)

	rec := postScrape(t, srv.Handler(), fmt.Sprintf(`{"url":%q}`, site.URL))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body, _ := io.ReadAll(rec.Body)
	var result model.CrawlResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if result.TotalPages != 1 {
		t.Errorf("expected only the seed page, got %d", result.TotalPages)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(metricsRec, req)
	if !strings.Contains(metricsRec.Body.String(), `doccrawl_crawls_total{outcome="partial"} 1`) {
		t.Error("expected partial outcome to be recorded")
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	srv := New(func(string) Crawler { return stubCrawler{} }, WithBudget(100*time.Millisecond))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
