package crawler

import "sync"

// VisitedSet records URLs that have been dequeued for fetching, whether or
// not the fetch succeeded. It only grows during a crawl.
type VisitedSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]struct{})}
}

// TryVisit marks u as visited and reports whether this call added it.
// The check and the insert happen under one lock, so exactly one caller
// wins for any given URL.
func (v *VisitedSet) TryVisit(u string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.urls[u]; ok {
		return false
	}
	v.urls[u] = struct{}{}
	return true
}

// Has reports whether u has been visited.
func (v *VisitedSet) Has(u string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.urls[u]
	return ok
}

// Len returns the number of visited URLs.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.urls)
}
