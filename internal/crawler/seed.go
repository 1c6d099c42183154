package crawler

import (
	"net"
	"net/url"
	"strings"
)

// ParseSeed validates a caller supplied seed and returns it in canonical
// form. The seed must be an absolute http or https URL with a host.
func ParseSeed(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &InvalidInputError{Input: raw, Err: ErrMissingURL}
	}

	u, err := url.Parse(trimmed)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return nil, &InvalidInputError{Input: raw, Err: ErrInvalidURL}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &InvalidInputError{Input: raw, Err: ErrInvalidURL}
	}

	canonicalize(u)
	return u, nil
}

// canonicalize rewrites u in place so that equivalent page URLs compare
// equal as strings: the host is lowercased, the default port for the
// scheme is removed, an empty path becomes "/" and the fragment is dropped.
// u.Scheme must already be lowercase.
func canonicalize(u *url.URL) {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}

	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	u.Fragment = ""
	u.RawFragment = ""
}
