// Package model defines the data structures shared between the crawler,
// the report writers, the HTTP server and the crawl archive.
//
// This package contains the following main types:
//   - Page: One extracted documentation page (url, title, content)
//   - CrawlResult: The ordered output of a single crawl invocation
//
// The models are kept in their own package so that crawler, report and
// database can all depend on them without import cycles. They serialize to
// the JSON shape consumed by the downstream tutorial generator.
package model
