// Package batch crawls several seed URLs concurrently.
//
// Every seed gets its own crawler from a Factory, so runs never share a
// frontier or visited set. Results come back in input order and a failure
// on one seed does not stop the others.
package batch
