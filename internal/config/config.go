package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "doccrawl"

	// DefaultMaxPages is the page cap of a single crawl.
	DefaultMaxPages = 15

	// DefaultTimeout bounds each outbound request.
	DefaultTimeout = 10 * time.Second

	// DefaultCrawlBudget bounds a whole crawl. When it runs out the pages
	// collected so far are returned as a partial result.
	DefaultCrawlBudget = 10 * time.Second

	// DefaultUserAgent identifies the crawler to documentation servers.
	DefaultUserAgent = "Mozilla/5.0 (compatible; TutorialBot/1.0)"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultConcurrency is the number of fetches in flight per crawl.
	DefaultConcurrency = 1

	// DefaultBatchSize is the number of seeds crawled at the same time.
	DefaultBatchSize = 4

	// DefaultListenAddress is where the HTTP server listens.
	DefaultListenAddress = ":8080"
)

// Config holds all configuration options for doccrawl.
// It is populated from CLI flags and passed down explicitly rather than
// kept in global state.
type Config struct {
	// Seeds are the URLs to crawl.
	Seeds []string

	// MaxPages is the page cap per crawl.
	MaxPages int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// CrawlBudget is the wall-clock budget of a single crawl. Zero disables it.
	CrawlBudget time.Duration

	// Concurrency is the number of fetches in flight per crawl.
	Concurrency int

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// ListenAddress is the address the server listens on.
	ListenAddress string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty,
	// .doccrawl is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-host settings loaded from the config file.
	SiteConfigs *File

	// JSONReport, MarkdownReport and CorpusReport select the output format.
	// At most one may be set; the default is the simple text report.
	JSONReport     bool
	MarkdownReport bool
	CorpusReport   bool

	// ReportFile is the output file path. Empty means stdout.
	ReportFile string

	// DBDir is the directory holding the crawl archive.
	DBDir string

	// SaveToDB enables archiving of crawl results.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxPages:      DefaultMaxPages,
		Timeout:       DefaultTimeout,
		CrawlBudget:   DefaultCrawlBudget,
		Concurrency:   DefaultConcurrency,
		BatchSize:     DefaultBatchSize,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		ListenAddress: DefaultListenAddress,
		DBDir:         XDGDataDir(),
		SaveToDB:      true,
	}
}

// XDGDataDir returns the XDG data directory for doccrawl.
// On Linux: ~/.local/share/doccrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for doccrawl.
// On Linux: ~/.config/doccrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the crawl options and returns the first problem found.
// Seeds are checked separately by RequireSeeds because the server takes
// its seeds from requests.
func (c *Config) Validate() error {
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlBudget < 0 {
		return ErrInvalidCrawlBudget
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	formats := 0
	for _, on := range []bool{c.JSONReport, c.MarkdownReport, c.CorpusReport} {
		if on {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}
	return nil
}

// RequireSeeds returns ErrNoSeed when no seed URL was given.
func (c *Config) RequireSeeds() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	return nil
}
