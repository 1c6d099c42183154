package model

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// CrawlResult is produced once per crawl invocation and is not modified
// after it has been returned.
//
// Only Pages and TotalPages are part of the JSON shape. The remaining fields
// describe the run for logs, reports and the archive.
type CrawlResult struct {
	// Pages are the extracted pages in discovery (breadth-first) order.
	Pages []Page `json:"pages"`

	// TotalPages always equals len(Pages).
	TotalPages int `json:"totalPages"`

	// Seed is the URL the crawl started from.
	Seed string `json:"-"`

	// StartedAt and FinishedAt bound the wall-clock time of the crawl.
	StartedAt  time.Time `json:"-"`
	FinishedAt time.Time `json:"-"`

	// Partial is true when the crawl stopped because its context was
	// cancelled or its deadline passed before the frontier drained.
	Partial bool `json:"-"`
}

// NewCrawlResult builds a result from the given pages, keeping TotalPages
// consistent with the slice. A nil slice becomes an empty one so the JSON
// output is always an array.
func NewCrawlResult(seed string, pages []Page) *CrawlResult {
	if pages == nil {
		pages = make([]Page, 0)
	}
	return &CrawlResult{
		Pages:      pages,
		TotalPages: len(pages),
		Seed:       seed,
	}
}

// Host returns the lowercase hostname of the seed, or an empty string when
// the seed cannot be parsed.
func (r *CrawlResult) Host() string {
	u, err := url.Parse(r.Seed)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Duration returns the elapsed crawl time, or zero when the timestamps are unset.
func (r *CrawlResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// MarshalJSON keeps the wire shape stable: pages is never null and
// totalPages is derived from the slice.
func (r *CrawlResult) MarshalJSON() ([]byte, error) {
	pages := r.Pages
	if pages == nil {
		pages = make([]Page, 0)
	}
	return json.Marshal(struct {
		Pages      []Page `json:"pages"`
		TotalPages int    `json:"totalPages"`
	}{
		Pages:      pages,
		TotalPages: len(pages),
	})
}
