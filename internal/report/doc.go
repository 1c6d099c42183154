// Package report renders crawl results.
//
// Writers for each output format:
//   - SimpleWriter: plain text listing for terminals
//   - JSONWriter: the {pages, totalPages} shape consumed by other tools
//   - FullJSONWriter: the same pages wrapped with run metadata
//   - MarkdownWriter: a browsable Markdown document
//   - CorpusWriter: the combined text handed to the tutorial generator
//
// Writers implement the Writer interface and can be combined with
// MultiWriter.
package report
