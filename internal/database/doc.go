// Package database archives crawl results in SQLite.
//
// Each finished crawl becomes a row in runs and its emitted pages rows in
// pages, in output order, with a SHA3-256 digest of the content. The
// archive backs the history command; the crawler never consults it, so
// every crawl starts from an empty frontier and visited set.
//
// modernc.org/sqlite is a CGO-free driver, so the binary cross-compiles
// without a C toolchain. WAL mode lets the server keep archiving while
// history reads.
package database
