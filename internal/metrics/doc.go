// Package metrics exposes crawl counters to Prometheus.
//
// A Metrics value is handed to every spider as its crawler.Recorder and
// served on /metrics by the HTTP server. Collectors live on a private
// registry, so tests and multiple servers in one process do not collide.
package metrics
