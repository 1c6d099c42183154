// Package config holds doccrawl's configuration: the defaults for a crawl,
// validation of user supplied values, and the optional .doccrawl YAML file
// with per-host settings.
package config
