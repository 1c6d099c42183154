package crawler

// Recorder receives crawl events. Implementations must be safe for
// concurrent use; a Spider calls them from the goroutine running Crawl, but
// one Recorder is usually shared by many spiders.
type Recorder interface {
	// FetchFailed is called once per abandoned URL with one of the
	// Reason* constants.
	FetchFailed(reason string)
	// ParseFailed is called for every href that could not be resolved.
	ParseFailed()
	// PageEmitted is called when a page is added to the result.
	PageEmitted()
	// PageDiscarded is called when a fetched page had too little text.
	PageDiscarded()
	// LinkEnqueued is called when a discovered link joins the frontier.
	LinkEnqueued()
}

// nopRecorder discards every event.
type nopRecorder struct{}

func (nopRecorder) FetchFailed(string) {}
func (nopRecorder) ParseFailed()       {}
func (nopRecorder) PageEmitted()       {}
func (nopRecorder) PageDiscarded()     {}
func (nopRecorder) LinkEnqueued()      {}
