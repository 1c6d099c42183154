// Package main provides the entry point for the doccrawl CLI.
//
// doccrawl crawls a bounded neighborhood of a documentation site and
// extracts the readable text of each page, ready to be handed to a
// tutorial generator.
//
// Usage:
//
//	doccrawl crawl https://docs.example.com/
//	doccrawl serve --listen :8080
//	doccrawl history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
