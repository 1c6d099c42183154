package report

import (
	"io"
	"time"

	"github.com/nao1215/doccrawl/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write renders result to the configured destination and returns the
	// number of bytes written.
	Write(result *model.CrawlResult) (int, error)
}

// MultiWriter writes to multiple Writers in order, for example to the
// terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers.
// It returns the total bytes written and stops on the first error.
func (m *MultiWriter) Write(result *model.CrawlResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeFormat is used for every timestamp in human-readable reports.
const timeFormat = "2006-01-02 15:04:05 MST"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeFormat)
}

// statusText describes how the crawl ended.
func statusText(result *model.CrawlResult) string {
	switch {
	case result.Partial:
		return "Timed Out (partial results)"
	case result.TotalPages == 0:
		return "No pages extracted"
	default:
		return "Complete"
	}
}
