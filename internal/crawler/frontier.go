package crawler

import "sync"

// Frontier is the FIFO queue of URLs discovered but not yet fetched.
// A URL can be present in the queue at most once.
type Frontier struct {
	mu     sync.Mutex
	queue  []string
	queued map[string]struct{}
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		queue:  make([]string, 0),
		queued: make(map[string]struct{}),
	}
}

// Push appends u to the back of the queue. It returns false and leaves the
// queue unchanged when u is already queued.
func (f *Frontier) Push(u string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.queued[u]; ok {
		return false
	}
	f.queued[u] = struct{}{}
	f.queue = append(f.queue, u)
	return true
}

// Pop removes and returns the URL at the front of the queue.
func (f *Frontier) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return "", false
	}
	u := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	delete(f.queued, u)
	return u, true
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Contains reports whether u is currently queued.
func (f *Frontier) Contains(u string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.queued[u]
	return ok
}

// Snapshot returns a copy of the queue in dequeue order.
func (f *Frontier) Snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queue))
	copy(out, f.queue)
	return out
}
