package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nao1215/doccrawl/internal/crawler"
)

var _ crawler.Recorder = (*Metrics)(nil)

func TestRecorderCounters(t *testing.T) {
	t.Parallel()

	m := New()

	m.PageEmitted()
	m.PageEmitted()
	m.PageDiscarded()
	m.LinkEnqueued()
	m.LinkEnqueued()
	m.LinkEnqueued()
	m.ParseFailed()
	m.FetchFailed(crawler.ReasonStatus)
	m.FetchFailed(crawler.ReasonStatus)
	m.FetchFailed(crawler.ReasonNetwork)

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{name: "pages emitted", got: testutil.ToFloat64(m.pagesEmitted), expected: 2},
		{name: "pages discarded", got: testutil.ToFloat64(m.pagesDiscarded), expected: 1},
		{name: "links enqueued", got: testutil.ToFloat64(m.linksEnqueued), expected: 3},
		{name: "parse failures", got: testutil.ToFloat64(m.parseFailures), expected: 1},
		{name: "status failures", got: testutil.ToFloat64(m.fetchFailures.WithLabelValues(crawler.ReasonStatus)), expected: 2},
		{name: "network failures", got: testutil.ToFloat64(m.fetchFailures.WithLabelValues(crawler.ReasonNetwork)), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestObserveCrawl(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveCrawl(OutcomeOK, 200*time.Millisecond)
	m.ObserveCrawl(OutcomePartial, 10*time.Second)
	m.ObserveCrawl(OutcomeOK, time.Second)

	if got := testutil.ToFloat64(m.crawls.WithLabelValues(OutcomeOK)); got != 2 {
		t.Errorf("expected 2 ok crawls, got %v", got)
	}
	if got := testutil.ToFloat64(m.crawls.WithLabelValues(OutcomePartial)); got != 1 {
		t.Errorf("expected 1 partial crawl, got %v", got)
	}
	if got := testutil.CollectAndCount(m.crawlDuration); got != 1 {
		t.Errorf("expected one histogram series, got %d", got)
	}
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.PageEmitted()
	m.ObserveCrawl(OutcomeOK, time.Second)

	server := httptest.NewServer(m.Handler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	for _, want := range []string{
		"doccrawl_pages_emitted_total 1",
		`doccrawl_crawls_total{outcome="ok"} 1`,
		"doccrawl_crawl_duration_seconds_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected exposition to contain %q", want)
		}
	}
}

func TestSeparateRegistries(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()
	a.PageEmitted()

	if got := testutil.ToFloat64(b.pagesEmitted); got != 0 {
		t.Errorf("expected registries to be independent, got %v", got)
	}
}
