package model

import (
	"encoding/hex"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"
)

// Page is the crawl's output unit: the readable text of one documentation
// page together with its URL and title.
type Page struct {
	// URL is the absolute URL the page was fetched from.
	URL string `json:"url"`

	// Title is the first <h1> text, the <title> text, or "Untitled".
	Title string `json:"title"`

	// Content is whitespace-collapsed plain text, capped at MaxContentLength runes.
	Content string `json:"content"`
}

// MaxContentLength is the maximum number of characters kept from a page body.
const MaxContentLength = 10000

// MinContentLength is the threshold a page's content length must exceed
// for the page to be emitted.
const MinContentLength = 100

// ContentLength returns the length of the content in characters (runes).
func (p *Page) ContentLength() int {
	return utf8.RuneCountInString(p.Content)
}

// Digest returns the hex encoded SHA3-256 digest of the page content.
// An empty content produces an empty digest.
func (p *Page) Digest() string {
	if p.Content == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(p.Content))
	return hex.EncodeToString(sum[:])
}
