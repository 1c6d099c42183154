package crawler

import (
	"errors"
	"fmt"
)

// Seed validation errors. The messages are returned verbatim to HTTP callers.
var (
	// ErrMissingURL is returned when the seed URL is empty.
	ErrMissingURL = errors.New("URL is required")

	// ErrInvalidURL is returned when the seed URL is not an absolute http or https URL.
	ErrInvalidURL = errors.New("Invalid URL format") //nolint:staticcheck // user facing message
)

// Fetch failure reasons reported to a Recorder.
const (
	ReasonNetwork = "network"
	ReasonStatus  = "status"
	ReasonBody    = "body"
	ReasonParse   = "parse"
)

// InvalidInputError reports a missing or malformed seed URL.
// It is returned before any network activity takes place.
type InvalidInputError struct {
	// Input is the seed exactly as the caller supplied it.
	Input string

	// Err is ErrMissingURL or ErrInvalidURL.
	Err error
}

func (e *InvalidInputError) Error() string {
	return e.Err.Error()
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed GET for a single URL: a network error, a
// timeout, a non-2xx status or an unreadable body. The crawler recovers from
// it by skipping the URL.
type FetchError struct {
	URL string

	// StatusCode is set when the server answered with a non-2xx status.
	StatusCode int

	// Reason is one of ReasonNetwork, ReasonStatus or ReasonBody.
	Reason string

	Err error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports HTML that could not be parsed or a link that could not
// be resolved. A bad link never aborts the extraction of its page.
type ParseError struct {
	URL string

	// Href is the offending attribute value, empty when the document itself failed.
	Href string

	Err error
}

func (e *ParseError) Error() string {
	if e.Href != "" {
		return fmt.Sprintf("parse link %q on %s: %v", e.Href, e.URL, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnexpectedError reports a failure the crawler cannot recover from.
// The crawl is aborted and no partial result is returned.
type UnexpectedError struct {
	URL string
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected failure processing %s: %v", e.URL, e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}
