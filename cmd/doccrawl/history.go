package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/doccrawl/internal/config"
	"github.com/nao1215/doccrawl/internal/database"
)

// errNotFound is returned when a run ID does not exist in the archive.
var errNotFound = errors.New("crawl not found")

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "List and inspect archived crawls",
		Long: `History lists the crawls archived by "doccrawl crawl" and
"doccrawl serve --save", newest first. Pass a host to only list its runs.

The archive is never consulted by the crawler itself; every crawl starts
from scratch.

Examples:
  # List the latest runs
  doccrawl history

  # List runs of one host
  doccrawl history docs.example.com

  # Print run 3 again as Markdown
  doccrawl history --show 3 --markdown

  # List archived hosts
  doccrawl history --hosts`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs listed (0 lists all)")
	cmd.Flags().Int64P("show", "s", 0,
		"Print the pages of the run with this ID")
	cmd.Flags().Int64("delete", 0,
		"Delete the run with this ID")
	cmd.Flags().Bool("hosts", false,
		"List archived hosts")
	cmd.Flags().BoolP("json", "j", false,
		"Print --show output as JSON")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print --show output as Markdown")
	cmd.Flags().Bool("corpus", false,
		"Print --show output as the generator corpus")
	addDBDirFlag(cmd)

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	host   string
	limit  int
	show   int64
	delete int64
	hosts  bool
	cfg    *config.Config
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := buildHistoryOptions(cmd, args)
	if err != nil {
		return err
	}
	if err := opts.cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	out := cmd.OutOrStdout()

	// Reading must not create an empty archive.
	if _, err := os.Stat(filepath.Join(opts.cfg.DBDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "No archived crawls.")
		return nil
	}

	db, err := database.Open(opts.cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	switch {
	case opts.delete != 0:
		return deleteRun(ctx, out, db, opts.delete)
	case opts.show != 0:
		return showRun(ctx, out, db, opts)
	case opts.hosts:
		return listHosts(ctx, out, db)
	default:
		return listRuns(ctx, out, db, opts)
	}
}

func buildHistoryOptions(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{cfg: config.NewConfig()}
	if len(args) == 1 {
		opts.host = args[0]
	}

	var err error
	if opts.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.show, err = cmd.Flags().GetInt64("show"); err != nil {
		return nil, err
	}
	if opts.delete, err = cmd.Flags().GetInt64("delete"); err != nil {
		return nil, err
	}
	if opts.hosts, err = cmd.Flags().GetBool("hosts"); err != nil {
		return nil, err
	}
	if opts.cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if opts.cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.cfg.CorpusReport, err = cmd.Flags().GetBool("corpus"); err != nil {
		return nil, err
	}
	if opts.cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return nil, err
	}
	opts.cfg.Verbose = getVerboseFlag(cmd)
	return opts, nil
}

func listRuns(ctx context.Context, out io.Writer, db *database.CrawlDB, opts *historyOptions) error {
	runs, err := db.ListCrawls(ctx, opts.host, opts.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No archived crawls.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tPAGES\tDURATION\tSTATUS\tSEED")
	for _, run := range runs {
		status := "complete"
		if run.Partial {
			status = "partial"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.TotalPages,
			run.Duration().Round(time.Millisecond),
			status,
			run.Seed,
		)
	}
	return tw.Flush()
}

func listHosts(ctx context.Context, out io.Writer, db *database.CrawlDB) error {
	hosts, err := db.ListHosts(ctx)
	if err != nil {
		return err
	}
	for _, host := range hosts {
		fmt.Fprintln(out, host)
	}
	return nil
}

func showRun(ctx context.Context, out io.Writer, db *database.CrawlDB, opts *historyOptions) error {
	result, err := db.GetCrawl(ctx, opts.show)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("%w: %d", errNotFound, opts.show)
	}

	_, err = newReportWriter(opts.cfg, crawlOptions{}, out).Write(result)
	return err
}

func deleteRun(ctx context.Context, out io.Writer, db *database.CrawlDB, id int64) error {
	deleted, err := db.DeleteCrawl(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %d", errNotFound, id)
	}
	fmt.Fprintf(out, "Deleted crawl %d\n", id)
	return nil
}
