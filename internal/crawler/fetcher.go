package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"
)

// DefaultUserAgent identifies the crawler to documentation servers.
const DefaultUserAgent = "Mozilla/5.0 (compatible; TutorialBot/1.0)"

// DefaultMaxBodySize caps how much of a response body is read.
const DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

// Fetcher performs the outbound GET for a single URL.
// The client is expected to carry the per-request timeout.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// NewFetcher creates a Fetcher. Zero values select DefaultUserAgent and
// DefaultMaxBodySize.
func NewFetcher(client *http.Client, userAgent string, maxBodySize int64) *Fetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return &Fetcher{
		client:      client,
		userAgent:   userAgent,
		maxBodySize: maxBodySize,
	}
}

// Fetch downloads pageURL and returns its body decoded to UTF-8.
// Every failure is reported as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: ReasonNetwork, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: ReasonNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck // best effort
		return nil, &FetchError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Reason:     ReasonStatus,
			Err:        fmt.Errorf("status %s", resp.Status),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: ReasonBody, Err: err}
	}

	return decodeBody(pageURL, raw, resp.Header.Get("Content-Type"))
}

// decodeBody converts raw to UTF-8 using the Content-Type charset or the
// document's <meta> declaration. An unknown charset keeps the raw bytes.
func decodeBody(pageURL string, raw []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return raw, nil //nolint:nilerr // fall back to the undecoded body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Reason: ReasonBody, Err: fmt.Errorf("decode body: %w", err)}
	}
	return decoded, nil
}
