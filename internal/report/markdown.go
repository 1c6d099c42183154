package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/doccrawl/internal/model"
	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs results as a Markdown document with a summary
// table and one section per page.
type MarkdownWriter struct {
	baseWriter

	// previewLength is the number of characters shown outside the
	// collapsible content block.
	previewLength int
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter:    newBaseWriter(output),
		previewLength: 200,
	}
}

// Write outputs the result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writePages(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the crawl summary table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("Documentation Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + result.Seed + "`"},
			{"Started", formatTime(result.StartedAt)},
			{"Duration", result.Duration().Round(time.Millisecond).String()},
			{"Pages", strconv.Itoa(result.TotalPages)},
			{"Status", w.statusBadge(result)},
		},
	})
	md.PlainText("")

	switch {
	case result.Partial:
		md.Warningf("The crawl budget ran out. %d page(s) were collected before it stopped.", result.TotalPages)
	case result.TotalPages == 0:
		md.Note("No page had enough readable text to be extracted.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) statusBadge(result *model.CrawlResult) string {
	switch {
	case result.Partial:
		return "⚠️ " + statusText(result)
	case result.TotalPages == 0:
		return "ℹ️ " + statusText(result)
	default:
		return "✅ " + statusText(result)
	}
}

// writePages writes a page index followed by one section per page.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, result *model.CrawlResult) {
	if len(result.Pages) == 0 {
		return
	}

	md.H2("Pages")
	md.PlainText("")

	rows := make([][]string, len(result.Pages))
	for i, page := range result.Pages {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			escapeCell(page.Title),
			"`" + page.URL + "`",
			strconv.Itoa(page.ContentLength()),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "URL", "Characters"},
		Rows:   rows,
	})
	md.PlainText("")

	for i, page := range result.Pages {
		md.H2(strconv.Itoa(i+1) + ". " + page.Title)
		md.PlainText("")
		md.PlainTextf("Source: <%s>", page.URL)
		md.PlainText("")
		md.PlainText(truncateString(page.Content, w.previewLength))
		md.PlainText("")
		md.Details("Full content", page.Content)
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [doccrawl](https://github.com/nao1215/doccrawl)*")
}

// escapeCell keeps user text from breaking a Markdown table row.
func escapeCell(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '|' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
