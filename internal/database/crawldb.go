package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/doccrawl/internal/model"
)

// FileName is the name of the archive file inside the database directory.
const FileName = "doccrawl.db"

// CrawlDB archives finished crawl results in SQLite.
// The crawler only writes to it; nothing read back from the archive ever
// influences a later crawl.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so a running server can archive
	// while the history command reads.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the archive in dbDir.
// With CreateIfNotExists unset a missing database is an error.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite: mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw&_pragma=foreign_keys(1)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per finished crawl
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		host TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		total_pages INTEGER NOT NULL,
		partial INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_host ON runs(host);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Emitted pages in output order
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		digest TEXT NOT NULL,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_digest ON pages(digest);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// CrawlSummary describes an archived crawl without its pages.
type CrawlSummary struct {
	ID         int64
	Seed       string
	Host       string
	StartedAt  time.Time
	FinishedAt time.Time
	TotalPages int
	Partial    bool
}

// Duration returns the elapsed time of the crawl.
func (s CrawlSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// SaveCrawl stores result and its pages in one transaction and returns the
// new run ID. Each page is stored with the SHA3-256 digest of its content.
func (cdb *CrawlDB) SaveCrawl(ctx context.Context, result *model.CrawlResult) (id int64, err error) {
	if result == nil {
		return 0, errors.New("cannot save a nil crawl result")
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (seed, host, started_at, finished_at, total_pages, partial)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		result.Seed,
		result.Host(),
		formatTimestamp(result.StartedAt),
		formatTimestamp(result.FinishedAt),
		len(result.Pages),
		result.Partial,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save crawl run: %w", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, position, url, title, content, digest)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for i, page := range result.Pages {
		if _, err = stmt.ExecContext(ctx, id, i, page.URL, page.Title, page.Content, page.Digest()); err != nil {
			return 0, fmt.Errorf("failed to save page %s: %w", page.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl: %w", err)
	}
	return id, nil
}

// ListCrawls returns archived crawls, newest first. An empty host lists
// every host; a non-positive limit returns all rows.
func (cdb *CrawlDB) ListCrawls(ctx context.Context, host string, limit int) ([]CrawlSummary, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	query := `
	SELECT id, seed, host, started_at, finished_at, total_pages, partial
	FROM runs
	WHERE (? = '' OR host = ?)
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, host, host, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawls: %w", err)
	}
	defer rows.Close()

	summaries := make([]CrawlSummary, 0)
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate crawls: %w", err)
	}
	return summaries, nil
}

// GetCrawlSummary returns the run metadata for id, or nil when absent.
func (cdb *CrawlDB) GetCrawlSummary(ctx context.Context, id int64) (*CrawlSummary, error) {
	row := cdb.db.QueryRowContext(ctx, `
	SELECT id, seed, host, started_at, finished_at, total_pages, partial
	FROM runs
	WHERE id = ?
	`, id)

	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetCrawl rebuilds the result archived under id, or returns nil when there
// is no such run.
func (cdb *CrawlDB) GetCrawl(ctx context.Context, id int64) (*model.CrawlResult, error) {
	summary, err := cdb.GetCrawlSummary(ctx, id)
	if err != nil || summary == nil {
		return nil, err
	}

	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, title, content
	FROM pages
	WHERE run_id = ?
	ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pages: %w", err)
	}
	defer rows.Close()

	pages := make([]model.Page, 0, summary.TotalPages)
	for rows.Next() {
		var page model.Page
		if err := rows.Scan(&page.URL, &page.Title, &page.Content); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pages: %w", err)
	}

	result := model.NewCrawlResult(summary.Seed, pages)
	result.StartedAt = summary.StartedAt
	result.FinishedAt = summary.FinishedAt
	result.Partial = summary.Partial
	return result, nil
}

// ListHosts returns every archived host in alphabetical order.
func (cdb *CrawlDB) ListHosts(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT DISTINCT host FROM runs ORDER BY host`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	hosts := make([]string, 0)
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hosts: %w", err)
	}
	return hosts, nil
}

// DeleteCrawl removes a run and its pages. It reports whether a run was deleted.
func (cdb *CrawlDB) DeleteCrawl(ctx context.Context, id int64) (bool, error) {
	res, err := cdb.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete crawl: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted rows: %w", err)
	}
	return n > 0, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*CrawlSummary, error) {
	var (
		summary             CrawlSummary
		startedAt, finished string
	)
	err := row.Scan(
		&summary.ID,
		&summary.Seed,
		&summary.Host,
		&startedAt,
		&finished,
		&summary.TotalPages,
		&summary.Partial,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan crawl: %w", err)
	}
	summary.StartedAt = parseTimestamp(startedAt)
	summary.FinishedAt = parseTimestamp(finished)
	return &summary, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // written by formatTimestamp
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, it returns the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
