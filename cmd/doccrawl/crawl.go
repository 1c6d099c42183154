package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/doccrawl/internal/batch"
	"github.com/nao1215/doccrawl/internal/config"
	"github.com/nao1215/doccrawl/internal/database"
	"github.com/nao1215/doccrawl/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl documentation sites and extract their text",
		Long: `Crawl fetches each seed URL and follows links on the same host
breadth-first until the page cap is reached or no links are left.

Every page with more than 100 characters of readable text is reported in
discovery order. Navigation, headers, footers, sidebars, scripts and styles
are removed before extraction. Results are archived locally unless
--no-save is given; see "doccrawl history".

Examples:
  # Crawl one site
  doccrawl crawl https://docs.example.com/

  # Crawl several sites, two at a time, as JSON
  doccrawl crawl --batch 2 --json https://docs.example.com/ https://guide.example.org/

  # Read seeds from a file and write the generator corpus to a file
  doccrawl crawl --list seeds.txt --corpus -o corpus.txt

  # Fetch four pages at a time, up to 30 pages, within 20 seconds
  doccrawl crawl -n 4 -p 30 --budget 20s https://docs.example.com/

Configuration file (.doccrawl) example:
  defaults:
    ignorePatterns:
      - "*.pdf"
  sites:
    docs.example.com:
      maxPages: 30
      followPatterns:
        - "/guide/**"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	addCrawlFlags(cmd)

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seeds crawled at the same time")
	cmd.Flags().StringP("list", "l", "",
		"File with one seed URL per line")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON ({pages, totalPages})")
	cmd.Flags().Bool("full", false,
		"Include run metadata in JSON output")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown report")
	cmd.Flags().Bool("corpus", false,
		"Output the combined text corpus used for tutorial generation")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("tee", false,
		"With --output, also print the report to stdout")
	cmd.Flags().Bool("no-save", false,
		"Do not archive results")

	return cmd
}

// crawlOptions are the crawl flags that do not belong in config.Config.
type crawlOptions struct {
	fullJSON bool
	tee      bool
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.RequireSeeds(); err != nil {
		return err
	}

	logger := newLogger(cmd, cfg.Verbose, false)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, opts, logger)
}

// buildCrawlConfig creates a Config from cobra command flags.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, crawlOptions, error) {
	cfg := config.NewConfig()
	var opts crawlOptions

	if err := applyCrawlFlags(cmd, cfg); err != nil {
		return nil, opts, err
	}

	var err error
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, opts, err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, opts, err
	}
	if opts.fullJSON, err = cmd.Flags().GetBool("full"); err != nil {
		return nil, opts, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, opts, err
	}
	if cfg.CorpusReport, err = cmd.Flags().GetBool("corpus"); err != nil {
		return nil, opts, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, opts, err
	}
	if opts.tee, err = cmd.Flags().GetBool("tee"); err != nil {
		return nil, opts, err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, opts, err
	}
	cfg.SaveToDB = !noSave

	cfg.Seeds = append(cfg.Seeds, args...)

	listPath, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, opts, err
	}
	if listPath != "" {
		seeds, err := readSeedList(listPath)
		if err != nil {
			return nil, opts, err
		}
		cfg.Seeds = append(cfg.Seeds, seeds...)
	}

	return cfg, opts, nil
}

// runCrawl crawls every seed, writes the reports in seed order and archives
// the results.
func runCrawl(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, opts crawlOptions, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", len(cfg.Seeds),
		"maxPages", cfg.MaxPages,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	factory, err := newSpiderFactory(cfg, logger, nil)
	if err != nil {
		return err
	}

	var db *database.CrawlDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // second close after the checked one below

	writer := newReportWriter(cfg, opts, output)
	if opts.tee && cfg.ReportFile != "" {
		writer = report.NewMultiWriter(newReportWriter(cfg, opts, stdout), writer)
	}

	bp := batch.NewProcessor(
		func(seed string) batch.Crawler { return factory.budgeted(seed) },
		batch.WithConcurrency(cfg.BatchSize),
		batch.WithLogger(logger),
	)

	results, batchErr := bp.Process(ctx, cfg.Seeds)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(stderr, "Crawl error for %s: %v\n", r.Seed, r.Err)
			continue
		}

		if r.Result.Partial {
			fmt.Fprintf(stderr, "Crawl budget exhausted for %s; returning %d pages\n", r.Seed, r.Result.TotalPages)
		}

		if _, err := writer.Write(r.Result); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		if db != nil {
			id, err := db.SaveCrawl(ctx, r.Result)
			if err != nil {
				logger.Error("failed to archive crawl", "seed", r.Seed, "error", err)
				continue
			}
			logger.Info("crawl archived", "seed", r.Seed, "id", id)
		}
	}

	if err := closeOutput(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if batchErr != nil {
		return batchErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d crawls failed", failed, len(results))
	}
	return nil
}

// newReportWriter selects the report format from cfg.
func newReportWriter(cfg *config.Config, opts crawlOptions, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport && opts.fullJSON:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	case cfg.CorpusReport:
		return report.NewCorpusWriter(output, report.DefaultCorpusLength)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
