package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/doccrawl/internal/model"
)

// DefaultConcurrency is the number of seeds crawled at once.
const DefaultConcurrency = 4

// Crawler crawls one seed. *crawler.Spider satisfies it.
type Crawler interface {
	Crawl(ctx context.Context, seed string) (*model.CrawlResult, error)
}

// Factory returns the crawler used for seed. It is called once per seed so
// that no traversal state is shared between seeds and per-site settings can
// be applied.
type Factory func(seed string) Crawler

// Result is the outcome for one seed of a batch.
type Result struct {
	// Index is the position of Seed in the input slice.
	Index int

	Seed string

	// Result is nil when Err is set.
	Result *model.CrawlResult

	Err error
}

// Processor crawls several seeds concurrently.
type Processor struct {
	factory     Factory
	concurrency int
	logger      *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger for batch-level events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithConcurrency sets the maximum number of seeds crawled at once.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// NewProcessor creates a Processor that builds a crawler per seed with factory.
func NewProcessor(factory Factory, opts ...Option) *Processor {
	p := &Processor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Process crawls every seed and returns one Result per seed in input order.
// A failing seed only sets its own Err. The returned error is non-nil only
// when ctx ended before every seed was started; seeds that never ran carry
// the context error.
func (p *Processor) Process(ctx context.Context, seeds []string) ([]Result, error) {
	results := make([]Result, len(seeds))
	for i, seed := range seeds {
		results[i] = Result{Index: i, Seed: seed}
	}

	// Each goroutine writes only its own slot.
	err := p.run(ctx, seeds, func(r Result) {
		results[r.Index] = r
	})
	return results, err
}

func (p *Processor) run(ctx context.Context, seeds []string, fn func(Result)) error {
	p.logger.Info("starting batch crawl",
		"total_seeds", len(seeds),
		"concurrency", p.concurrency,
	)
	startTime := time.Now()

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				fn(Result{Index: i, Seed: seed, Err: err})
				return err
			}

			p.logger.Debug("crawling seed", "seed", seed, "index", i+1, "total", len(seeds))

			result, err := p.factory(seed).Crawl(ctx, seed)
			if err != nil {
				p.logger.Warn("crawl failed", "seed", seed, "error", err)
				fn(Result{Index: i, Seed: seed, Err: err})
				return nil
			}

			p.logger.Debug("crawl completed", "seed", seed, "pages", result.TotalPages, "partial", result.Partial)
			fn(Result{Index: i, Seed: seed, Result: result})
			return nil
		})
	}

	err := g.Wait()

	p.logger.Info("batch crawl complete",
		"total_seeds", len(seeds),
		"elapsed", time.Since(startTime),
	)
	return err
}
