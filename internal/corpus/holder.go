package corpus

import "sync/atomic"

// Holder publishes a corpus from the ingestion goroutine to request
// handlers. Snapshot readers never block: before the first Set they see an
// empty corpus, after it they see a fully built immutable one.
type Holder struct {
	current atomic.Pointer[Corpus]
}

// NewHolder creates a holder in the "not ready" state.
func NewHolder() *Holder {
	h := &Holder{}
	h.current.Store(Empty())
	return h
}

// Set publishes a built corpus. Single writer: the ingestion path.
func (h *Holder) Set(c *Corpus) {
	if c == nil {
		c = Empty()
	}
	h.current.Store(c)
}

// Snapshot returns the currently published corpus.
func (h *Holder) Snapshot() *Corpus {
	return h.current.Load()
}
