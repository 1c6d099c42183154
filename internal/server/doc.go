// Package server exposes the crawler over HTTP.
//
// POST /api/scrape takes {"url": "..."} and answers with the crawl result
// {"pages": [...], "totalPages": n}. Invalid input is a 400, any other
// failure a 500 with a fixed message. Every response allows any origin and
// OPTIONS answers CORS preflights. Each request gets its own crawler and a
// wall-clock budget; when the budget runs out the pages collected so far are
// returned.
//
// GET /healthz and, when metrics are configured, GET /metrics are served
// alongside.
package server
