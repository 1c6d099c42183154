// Package log provides the application's slog setup with automatic
// sanitization of credentials.
//
// Documentation sites are sometimes crawled with per-site headers (API
// tokens, session cookies) and seeds that carry signed query strings. The
// SecureHandler keeps those values out of log output:
//   - attributes whose key names a credential (authorization, cookie, token)
//   - values that look like bearer tokens, JWTs or private keys
//   - sensitive query parameters and passwords inside URL values
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetch failed",
//	    "url", "https://docs.example.com/page?token=abc", // token=***REDACTED***
//	    "error", err,
//	)
package log
