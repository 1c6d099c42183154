package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/doccrawl/internal/config"
	"github.com/nao1215/doccrawl/internal/database"
	"github.com/nao1215/doccrawl/internal/metrics"
	"github.com/nao1215/doccrawl/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the crawler over HTTP",
		Long: `Serve starts an HTTP server exposing the crawler.

Endpoints:
  POST    /api/scrape   {"url": "https://docs.example.com/"} -> {"pages": [...], "totalPages": n}
  OPTIONS /api/scrape   CORS preflight
  GET     /healthz      liveness probe
  GET     /metrics      Prometheus metrics

Every request runs its own crawl within --budget; when the budget runs out
the pages collected so far are returned.

Examples:
  # Listen on the default address
  doccrawl serve

  # Listen on localhost only, archive every crawl, log as JSON
  doccrawl serve --listen 127.0.0.1:9000 --save --json-logs`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addCrawlFlags(cmd)

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address to listen on")
	cmd.Flags().Bool("save", false,
		"Archive every successful crawl")
	cmd.Flags().Bool("json-logs", false,
		"Write logs as JSON")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()
	if err := applyCrawlFlags(cmd, cfg); err != nil {
		return err
	}

	var err error
	if cfg.ListenAddress, err = cmd.Flags().GetString("listen"); err != nil {
		return err
	}
	if cfg.SaveToDB, err = cmd.Flags().GetBool("save"); err != nil {
		return err
	}
	jsonLogs, err := cmd.Flags().GetBool("json-logs")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg.Verbose, jsonLogs)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg, logger)
}

// runServe serves until ctx is done.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	srv, cleanup, err := newServer(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return srv.ListenAndServe(ctx, cfg.ListenAddress)
}

// newServer wires the spider factory, metrics and optional archive into a
// server. cleanup releases the archive.
func newServer(cfg *config.Config, logger *slog.Logger) (*server.Server, func(), error) {
	m := metrics.New()

	factory, err := newSpiderFactory(cfg, logger, m)
	if err != nil {
		return nil, nil, err
	}

	opts := []server.Option{
		server.WithBudget(cfg.CrawlBudget),
		server.WithLogger(logger),
		server.WithMetrics(m),
	}

	cleanup := func() {}
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		cleanup = func() { _ = db.Close() }
		opts = append(opts, server.WithArchive(db))
		logger.Info("archiving crawls", "path", db.Path())
	}

	srv := server.New(
		func(seed string) server.Crawler { return factory.newSpider(seed) },
		opts...,
	)
	return srv, cleanup, nil
}
