package crawler

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/doccrawl/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// boilerplateSelector matches elements removed before any text is read.
const boilerplateSelector = "script, style, nav, header, footer, .navigation, .sidebar"

// contentRegions are tried in order; the first one present in the document
// supplies the page text. The body is the fallback.
var contentRegions = []string{"main", "article", ".content", ".documentation"}

// untitled is used when a page has neither an <h1> nor a <title>.
const untitled = "Untitled"

// Extraction is what the Extractor reads from one HTML document.
type Extraction struct {
	// Title is the page title after whitespace collapsing.
	Title string

	// Content is the region text, whitespace-collapsed and truncated.
	Content string

	// Links are absolute http(s) URLs from <a href> elements, fragment removed,
	// in document order. Duplicates are kept; the frontier dedups them.
	Links []string

	// LinkErrors holds hrefs that could not be resolved.
	LinkErrors []*ParseError
}

// ContentLength returns the length of Content in characters.
func (e *Extraction) ContentLength() int {
	return utf8.RuneCountInString(e.Content)
}

// Page converts the extraction into an output page for pageURL.
func (e *Extraction) Page(pageURL string) model.Page {
	return model.Page{URL: pageURL, Title: e.Title, Content: e.Content}
}

// Extractor turns raw HTML into a title, a body text and a list of links.
type Extractor struct {
	maxContentLength int
}

// NewExtractor creates an Extractor keeping at most maxContentLength
// characters of text. A non-positive value selects model.MaxContentLength.
func NewExtractor(maxContentLength int) *Extractor {
	if maxContentLength <= 0 {
		maxContentLength = model.MaxContentLength
	}
	return &Extractor{maxContentLength: maxContentLength}
}

// Extract parses body as HTML fetched from pageURL. Boilerplate elements are
// removed first, so neither their text nor their links are used.
func (e *Extractor) Extract(pageURL *url.URL, body []byte) (*Extraction, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: pageURL.String(), Err: err}
	}

	doc := goquery.NewDocumentFromNode(root)
	doc.Find(boilerplateSelector).Remove()

	result := &Extraction{
		Title:   extractTitle(doc),
		Content: e.extractContent(doc),
		Links:   make([]string, 0),
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link, err := resolveLink(pageURL, href)
		if err != nil {
			result.LinkErrors = append(result.LinkErrors, &ParseError{URL: pageURL.String(), Href: href, Err: err})
			return
		}
		if link != "" {
			result.Links = append(result.Links, link)
		}
	})

	return result, nil
}

// extractTitle prefers the first <h1>, then <title>, then "Untitled".
func extractTitle(doc *goquery.Document) string {
	if title := collapseWhitespace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	if title := collapseWhitespace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return untitled
}

func (e *Extractor) extractContent(doc *goquery.Document) string {
	region := doc.Find("body").First()
	for _, selector := range contentRegions {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			region = sel
			break
		}
	}
	if region.Length() == 0 {
		region = doc.Selection
	}

	text := norm.NFC.String(region.Text())
	return truncateRunes(collapseWhitespace(text), e.maxContentLength)
}

// collapseWhitespace replaces every run of Unicode whitespace with a single
// space and trims both ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// resolveLink resolves href against base. It returns an empty string without
// error for hrefs that never point at a fetchable document.
func resolveLink(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return "", nil
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return "", nil
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", nil
	}
	if resolved.Hostname() == "" {
		return "", nil
	}
	canonicalize(resolved)
	return resolved.String(), nil
}
