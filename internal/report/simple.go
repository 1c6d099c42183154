package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/doccrawl/internal/model"
)

// SimpleWriter outputs a plain text listing for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose prints each page's full content instead of a preview.
	verbose bool

	// previewLength is the number of characters shown per page when not verbose.
	previewLength int
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables printing the full content of every page.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithPreviewLength sets how many characters of content are previewed.
func WithPreviewLength(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.previewLength = n
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter:    newBaseWriter(output),
		previewLength: 120,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result in human-readable format.
func (w *SimpleWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writePages(&sb, result)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      DOCUMENTATION CRAWL\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed:      %s\n", result.Seed)
	fmt.Fprintf(sb, "Started:   %s\n", formatTime(result.StartedAt))
	fmt.Fprintf(sb, "Pages:     %d\n", result.TotalPages)
	fmt.Fprintf(sb, "Status:    %s\n", strings.ToUpper(statusText(result)))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, result *model.CrawlResult) {
	if len(result.Pages) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for i, page := range result.Pages {
		fmt.Fprintf(sb, "[%d] %s\n", i+1, page.Title)
		fmt.Fprintf(sb, "    URL:    %s\n", page.URL)
		fmt.Fprintf(sb, "    Length: %d characters\n", page.ContentLength())
		content := page.Content
		if !w.verbose {
			content = truncateString(content, w.previewLength)
		}
		fmt.Fprintf(sb, "    %s\n\n", content)
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by doccrawl\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
