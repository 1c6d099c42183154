// Package transport builds the outbound HTTP client used by the crawler.
//
// The client carries the per-request timeout, a redirect limit and no cookie
// jar, so nothing learned from one response is replayed on the next. An
// optional SOCKS5 proxy and a fixed set of extra headers can be configured
// per site.
package transport
