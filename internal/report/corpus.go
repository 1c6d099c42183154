package report

import (
	"io"
	"strings"

	"github.com/nao1215/doccrawl/internal/model"
)

const (
	// DefaultCorpusLength is the number of characters the tutorial
	// generator accepts as input.
	DefaultCorpusLength = 50000

	corpusSeparator = "\n\n---\n\n"
)

// CorpusWriter outputs the pages as one text block: every page rendered as
// a "Page:" line, a "URL:" line and its content, pages separated by a
// horizontal rule, the whole cut to a character limit.
type CorpusWriter struct {
	baseWriter

	maxLength int
}

// NewCorpusWriter creates a CorpusWriter. A non-positive maxLength selects
// DefaultCorpusLength.
func NewCorpusWriter(output io.Writer, maxLength int) *CorpusWriter {
	if maxLength <= 0 {
		maxLength = DefaultCorpusLength
	}
	return &CorpusWriter{
		baseWriter: newBaseWriter(output),
		maxLength:  maxLength,
	}
}

// Write outputs the combined corpus followed by a newline.
func (w *CorpusWriter) Write(result *model.CrawlResult) (int, error) {
	return io.WriteString(w.output, Corpus(result.Pages, w.maxLength)+"\n")
}

// Corpus joins pages into the generator's input text, truncated to
// maxLength characters.
func Corpus(pages []model.Page, maxLength int) string {
	parts := make([]string, len(pages))
	for i, page := range pages {
		parts[i] = "Page: " + page.Title + "\nURL: " + page.URL + "\n" + page.Content
	}

	corpus := strings.Join(parts, corpusSeparator)
	runes := []rune(corpus)
	if len(runes) > maxLength {
		return string(runes[:maxLength])
	}
	return corpus
}
