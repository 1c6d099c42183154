package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/doccrawl/internal/model"
	"github.com/nao1215/doccrawl/internal/transport"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxPages is the number of pages after which a crawl stops.
const DefaultMaxPages = 15

// Spider crawls a documentation site breadth-first from a seed URL.
// It only holds configuration. All traversal state lives in the run created
// by each Crawl call, so a Spider may be shared between goroutines.
type Spider struct {
	// client performs every outbound request. Its Timeout bounds each fetch.
	client *http.Client

	// maxPages is both the output cap and the enqueue budget.
	maxPages int

	userAgent string

	// maxContentLength is the number of characters kept per page.
	maxContentLength int

	// minContentLength is the number of characters a page must exceed
	// to be emitted.
	minContentLength int

	maxBodySize int64

	// concurrency is the number of fetches in flight at once.
	concurrency int

	// ignorePatterns and followPatterns filter discovered links by path.
	ignorePatterns []string
	followPatterns []string

	logger   *slog.Logger
	recorder Recorder
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxPages sets the maximum number of pages a crawl emits.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithMaxContentLength sets how many characters of text are kept per page.
func WithMaxContentLength(n int) SpiderOption {
	return func(s *Spider) {
		s.maxContentLength = n
	}
}

// WithMinContentLength sets the number of characters a page's text must
// exceed before the page is emitted.
func WithMinContentLength(n int) SpiderOption {
	return func(s *Spider) {
		s.minContentLength = n
	}
}

// WithMaxBodySize sets the maximum response body size read per page.
func WithMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		s.maxBodySize = size
	}
}

// WithConcurrency sets how many pages are fetched at the same time.
// The result does not depend on this value when the remote content is fixed.
func WithConcurrency(n int) SpiderOption {
	return func(s *Spider) {
		s.concurrency = n
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/blog/*", "*.pdf").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only links matching at least one pattern are enqueued.
// The seed itself is always fetched.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithLogger sets the logger for per-URL failures and crawl summaries.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithRecorder sets the receiver of crawl events.
func WithRecorder(r Recorder) SpiderOption {
	return func(s *Spider) {
		s.recorder = r
	}
}

// NewSpider creates a Spider. A nil client selects transport's default
// client, which carries the per-request timeout and redirect limit.
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	if client == nil {
		client = transport.NewDefaultHTTPClient()
	}

	s := &Spider{
		client:           client,
		maxPages:         DefaultMaxPages,
		userAgent:        DefaultUserAgent,
		maxContentLength: model.MaxContentLength,
		minContentLength: model.MinContentLength,
		maxBodySize:      DefaultMaxBodySize,
		concurrency:      1,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.maxPages <= 0 {
		s.maxPages = DefaultMaxPages
	}
	if s.concurrency <= 0 {
		s.concurrency = 1
	}
	if s.minContentLength < 0 {
		s.minContentLength = 0
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}

	return s
}

// Crawl fetches pages breadth-first starting at seed and returns the pages
// with enough text, in the order they were dequeued.
//
// A malformed seed is reported as *InvalidInputError before any request is
// made. Failures of individual URLs are logged and skipped. When ctx is
// cancelled or its deadline passes, the pages collected so far are returned
// with Partial set and a nil error.
func (s *Spider) Crawl(ctx context.Context, seed string) (*model.CrawlResult, error) {
	start, err := ParseSeed(seed)
	if err != nil {
		return nil, err
	}

	startedAt := time.Now()
	run := s.newRun(start)

	for !run.done() {
		if ctx.Err() != nil {
			run.interrupted = true
			break
		}
		if err := run.step(ctx); err != nil {
			s.logger.Error("crawl aborted", "seed", start.String(), "error", err)
			return nil, err
		}
		if run.interrupted {
			break
		}
	}

	result := model.NewCrawlResult(start.String(), run.pages)
	result.StartedAt = startedAt
	result.FinishedAt = time.Now()
	result.Partial = run.interrupted

	s.logger.Info("crawl finished",
		"seed", result.Seed,
		"pages", result.TotalPages,
		"visited", run.visited.Len(),
		"partial", result.Partial,
		"duration", result.Duration(),
	)

	return result, nil
}

// crawlRun is the state of a single Crawl call.
type crawlRun struct {
	spider    *Spider
	host      string
	filter    pathFilter
	fetcher   *Fetcher
	extractor *Extractor
	frontier  *Frontier
	visited   *VisitedSet
	pages     []model.Page

	// interrupted is set when the context ended before the frontier drained.
	interrupted bool
}

// fetched is the outcome of fetching one wave member.
type fetched struct {
	url  string
	body []byte
	err  error
}

func (s *Spider) newRun(seed *url.URL) *crawlRun {
	r := &crawlRun{
		spider:    s,
		host:      strings.ToLower(seed.Hostname()),
		filter:    pathFilter{ignore: s.ignorePatterns, follow: s.followPatterns},
		fetcher:   NewFetcher(s.client, s.userAgent, s.maxBodySize),
		extractor: NewExtractor(s.maxContentLength),
		frontier:  NewFrontier(),
		visited:   NewVisitedSet(),
		pages:     make([]model.Page, 0, s.maxPages),
	}
	r.frontier.Push(seed.String())
	return r
}

// done reports whether the loop condition no longer holds.
func (r *crawlRun) done() bool {
	return r.frontier.Len() == 0 || len(r.pages) >= r.spider.maxPages
}

// step dequeues one wave, fetches it and processes the responses in dequeue
// order. With concurrency 1 a wave is a single URL.
func (r *crawlRun) step(ctx context.Context) error {
	wave := r.nextWave()
	if len(wave) == 0 {
		return nil
	}

	results := r.fetchWave(ctx, wave)
	for i, res := range results {
		if len(r.pages) >= r.spider.maxPages {
			return nil
		}

		if res.err != nil {
			if ctx.Err() != nil {
				r.interrupted = true
				return nil
			}
			r.fetchFailed(res.url, res.err)
			continue
		}

		// Wave members not yet processed are still part of the queue
		// as far as the enqueue budget is concerned.
		pending := len(results) - i - 1
		if err := r.process(res.url, res.body, pending); err != nil {
			return err
		}
	}
	return nil
}

// nextWave pops up to concurrency URLs that have not been visited, marking
// each visited before it is fetched. Already visited entries are dropped
// without counting against the wave.
func (r *crawlRun) nextWave() []string {
	size := min(r.spider.concurrency, r.spider.maxPages-len(r.pages))
	wave := make([]string, 0, size)
	for len(wave) < size {
		u, ok := r.frontier.Pop()
		if !ok {
			break
		}
		if !r.visited.TryVisit(u) {
			continue
		}
		wave = append(wave, u)
	}
	return wave
}

func (r *crawlRun) fetchWave(ctx context.Context, wave []string) []fetched {
	results := make([]fetched, len(wave))
	if len(wave) == 1 {
		body, err := r.fetcher.Fetch(ctx, wave[0])
		results[0] = fetched{url: wave[0], body: body, err: err}
		return results
	}

	var g errgroup.Group
	g.SetLimit(r.spider.concurrency)
	for i, u := range wave {
		g.Go(func() error {
			body, err := r.fetcher.Fetch(ctx, u)
			results[i] = fetched{url: u, body: body, err: err}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines never return an error

	return results
}

func (r *crawlRun) fetchFailed(pageURL string, err error) {
	reason := ReasonNetwork
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		reason = fetchErr.Reason
	}
	r.spider.logger.Debug("fetch failed", "url", pageURL, "reason", reason, "error", err)
	r.spider.recorder.FetchFailed(reason)
}

// process extracts one fetched page, enqueues its links and then appends
// the page when it has enough text. A panic during extraction aborts the
// crawl with an *UnexpectedError.
func (r *crawlRun) process(pageURL string, body []byte, pending int) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &UnexpectedError{URL: pageURL, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	current, err := url.Parse(pageURL)
	if err != nil {
		return &UnexpectedError{URL: pageURL, Err: err}
	}

	extraction, err := r.extractor.Extract(current, body)
	if err != nil {
		r.spider.logger.Debug("parse failed", "url", pageURL, "error", err)
		r.spider.recorder.FetchFailed(ReasonParse)
		return nil
	}

	for _, linkErr := range extraction.LinkErrors {
		r.spider.logger.Debug("skipping link", "url", pageURL, "href", linkErr.Href, "error", linkErr.Err)
		r.spider.recorder.ParseFailed()
	}

	r.discover(extraction.Links, pending)

	if extraction.ContentLength() <= r.spider.minContentLength {
		r.spider.logger.Debug("page has too little text", "url", pageURL, "length", extraction.ContentLength())
		r.spider.recorder.PageDiscarded()
		return nil
	}

	r.pages = append(r.pages, extraction.Page(pageURL))
	r.spider.recorder.PageEmitted()
	return nil
}

// discover enqueues same-host links that are neither visited nor queued,
// as long as the queue plus the pages emitted so far stays below maxPages.
func (r *crawlRun) discover(links []string, pending int) {
	for _, link := range links {
		if r.visited.Has(link) || r.frontier.Contains(link) {
			continue
		}
		if !r.sameHost(link) {
			continue
		}
		if !r.filter.empty() && !r.filter.allows(link) {
			continue
		}
		if r.frontier.Len()+pending+len(r.pages) >= r.spider.maxPages {
			return
		}
		if r.frontier.Push(link) {
			r.spider.recorder.LinkEnqueued()
		}
	}
}

func (r *crawlRun) sameHost(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), r.host)
}
