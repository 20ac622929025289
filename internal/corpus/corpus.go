// Package corpus holds the immutable in-memory set of listings and their
// precomputed embedding vectors. A Corpus is built once at ingestion and
// read lock-free by concurrent searches afterwards.
package corpus

import (
	"fmt"

	"github.com/kailas-cloud/propmatch/internal/domain"
)

// Corpus pairs listings with their embedding vectors by index:
// vector i belongs to listing i. Neither slice is mutated after New.
type Corpus struct {
	listings []domain.Listing
	vectors  [][]float32
}

// New creates a corpus. The two slices must be index-aligned; the corpus
// takes ownership and callers must not modify them afterwards.
func New(listings []domain.Listing, vectors [][]float32) (*Corpus, error) {
	if len(listings) != len(vectors) {
		return nil, fmt.Errorf("corpus: %d listings but %d vectors", len(listings), len(vectors))
	}
	return &Corpus{listings: listings, vectors: vectors}, nil
}

// Empty returns an explicitly empty corpus, used after a failed build so
// "no data" stays distinguishable from "no matches".
func Empty() *Corpus {
	return &Corpus{}
}

// Len returns the number of listings.
func (c *Corpus) Len() int {
	return len(c.listings)
}

// Ready reports whether the corpus can serve searches.
func (c *Corpus) Ready() bool {
	return c != nil && len(c.listings) > 0
}

// Listing returns the listing at index i.
func (c *Corpus) Listing(i int) domain.Listing {
	return c.listings[i]
}

// Vector returns the embedding vector for listing i.
// The returned slice is shared and must be treated as read-only.
func (c *Corpus) Vector(i int) []float32 {
	return c.vectors[i]
}
