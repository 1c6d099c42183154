package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "doccrawl"

// Crawl outcomes recorded by ObserveCrawl.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds the crawl collectors on a private registry.
// It implements crawler.Recorder and is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	crawls         *prometheus.CounterVec
	pagesEmitted   prometheus.Counter
	pagesDiscarded prometheus.Counter
	fetchFailures  *prometheus.CounterVec
	parseFailures  prometheus.Counter
	linksEnqueued  prometheus.Counter
	crawlDuration  prometheus.Histogram
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		crawls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawls_total",
			Help:      "Crawl invocations by outcome.",
		}, []string{"outcome"}),
		pagesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_emitted_total",
			Help:      "Pages added to a crawl result.",
		}),
		pagesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_discarded_total",
			Help:      "Fetched pages dropped for having too little text.",
		}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Abandoned URLs by failure reason.",
		}, []string{"reason"}),
		parseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Links that could not be resolved against their page.",
		}),
		linksEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_enqueued_total",
			Help:      "Discovered links added to a frontier.",
		}),
		crawlDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crawl_duration_seconds",
			Help:      "Wall-clock duration of crawl invocations.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	m.registry.MustRegister(
		m.crawls,
		m.pagesEmitted,
		m.pagesDiscarded,
		m.fetchFailures,
		m.parseFailures,
		m.linksEnqueued,
		m.crawlDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCrawl records one finished crawl invocation.
func (m *Metrics) ObserveCrawl(outcome string, elapsed time.Duration) {
	m.crawls.WithLabelValues(outcome).Inc()
	m.crawlDuration.Observe(elapsed.Seconds())
}

// FetchFailed counts an abandoned URL.
func (m *Metrics) FetchFailed(reason string) {
	m.fetchFailures.WithLabelValues(reason).Inc()
}

// ParseFailed counts an unresolvable link.
func (m *Metrics) ParseFailed() {
	m.parseFailures.Inc()
}

// PageEmitted counts an emitted page.
func (m *Metrics) PageEmitted() {
	m.pagesEmitted.Inc()
}

// PageDiscarded counts a page below the content threshold.
func (m *Metrics) PageDiscarded() {
	m.pagesDiscarded.Inc()
}

// LinkEnqueued counts a link that joined the frontier.
func (m *Metrics) LinkEnqueued() {
	m.linksEnqueued.Inc()
}
