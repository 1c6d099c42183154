package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/doccrawl/internal/config"
	"github.com/nao1215/doccrawl/internal/crawler"
	"github.com/nao1215/doccrawl/internal/model"
	"github.com/nao1215/doccrawl/internal/transport"
)

// spiderFactory builds a fresh spider per seed, applying the settings of
// the seed's host from the configuration file.
type spiderFactory struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder crawler.Recorder

	// client is shared by every host without extra headers.
	client *http.Client
}

func newSpiderFactory(cfg *config.Config, logger *slog.Logger, recorder crawler.Recorder) (*spiderFactory, error) {
	client, err := transport.NewHTTPClient(transport.Options{
		Timeout:      cfg.Timeout,
		ProxyAddress: cfg.ProxyAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &spiderFactory{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		client:   client,
	}, nil
}

// newSpider returns a spider configured for seed's host.
func (f *spiderFactory) newSpider(seed string) *crawler.Spider {
	site := f.cfg.SiteConfigs.GetSiteConfig(seedHost(seed))

	client := f.client
	if len(site.Headers) > 0 {
		c, err := transport.NewHTTPClient(transport.Options{
			Timeout:      f.cfg.Timeout,
			ProxyAddress: f.cfg.ProxyAddress,
			Headers:      site.Headers,
		})
		if err != nil {
			f.logger.Warn("ignoring site headers", "seed", seed, "error", err)
		} else {
			client = c
		}
	}

	maxPages := f.cfg.MaxPages
	if site.MaxPages > 0 {
		maxPages = site.MaxPages
	}
	userAgent := f.cfg.UserAgent
	if site.UserAgent != "" {
		userAgent = site.UserAgent
	}

	opts := []crawler.SpiderOption{
		crawler.WithMaxPages(maxPages),
		crawler.WithUserAgent(userAgent),
		crawler.WithMaxBodySize(f.cfg.MaxBodySize),
		crawler.WithConcurrency(f.cfg.Concurrency),
		crawler.WithIgnorePatterns(site.IgnorePatterns),
		crawler.WithFollowPatterns(site.FollowPatterns),
		crawler.WithLogger(f.logger),
	}
	if f.recorder != nil {
		opts = append(opts, crawler.WithRecorder(f.recorder))
	}
	return crawler.NewSpider(client, opts...)
}

// budgeted returns a spider for seed whose crawls stop after the
// configured budget.
func (f *spiderFactory) budgeted(seed string) *budgetedCrawler {
	return &budgetedCrawler{
		spider: f.newSpider(seed),
		budget: f.cfg.CrawlBudget,
	}
}

// budgetedCrawler bounds every crawl with a wall-clock deadline.
type budgetedCrawler struct {
	spider *crawler.Spider
	budget time.Duration
}

func (c *budgetedCrawler) Crawl(ctx context.Context, seed string) (*model.CrawlResult, error) {
	if c.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.budget)
		defer cancel()
	}
	return c.spider.Crawl(ctx, seed)
}

func seedHost(seed string) string {
	u, err := url.Parse(strings.TrimSpace(seed))
	if err != nil {
		return ""
	}
	return u.Hostname()
}
