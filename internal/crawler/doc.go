// Package crawler implements the bounded documentation crawler.
//
// # Architecture
//
// The package is built around the Spider type. A Spider holds configuration
// only; every call to Crawl creates a fresh run with its own frontier,
// visited set and output list, so independent crawls can run concurrently
// on the same Spider without sharing state.
//
// # Components
//
//   - Spider: validates the seed and drives the traversal loop
//   - Frontier: FIFO queue of URLs discovered but not yet fetched
//   - VisitedSet: URLs already dequeued; TryVisit is the only admission gate
//   - Fetcher: performs the outbound GET and decodes the body to UTF-8
//   - Extractor: strips boilerplate and extracts title, text and links
//
// # Limits
//
// A crawl stops when the frontier is empty or when MaxPages pages have been
// emitted. Links are only enqueued while the number of queued URLs plus the
// pages emitted so far stays below MaxPages. Only URLs on the seed's hostname
// are followed.
//
// # Failures
//
// Fetch and parse failures for individual URLs are logged and skipped.
// The only errors Crawl returns are *InvalidInputError for a malformed seed
// and *UnexpectedError when processing a page fails in an unforeseen way.
// When the context is cancelled the pages collected so far are returned
// with CrawlResult.Partial set.
//
// # Usage
//
//	spider := crawler.NewSpider(httpClient, crawler.WithMaxPages(15))
//	result, err := spider.Crawl(ctx, "https://docs.example.com/")
package crawler
