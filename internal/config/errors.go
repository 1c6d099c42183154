package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.RequireSeeds. Callers match them with errors.Is.
var (
	// ErrNoSeed is returned when neither an argument nor --list provides a seed.
	ErrNoSeed = errors.New("no seed specified: provide a URL or use --list")

	// ErrInvalidMaxPages is returned when the page cap is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlBudget is returned when the crawl budget is negative.
	// Zero disables the budget.
	ErrInvalidCrawlBudget = errors.New("invalid crawl budget: must be non-negative")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown and --corpus is given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: choose one of --json, --markdown or --corpus")
)
