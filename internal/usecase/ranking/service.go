// Package ranking implements hybrid search over the listing corpus:
// binary hard-constraint scores fused with cosine similarity between the
// query embedding and each listing's precomputed embedding.
package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/propmatch/internal/domain"
)

// Service ranks listings for a query. Stateless between calls; its only
// state dependency is the corpus snapshot it reads.
type Service struct {
	corpus  CorpusReader
	embed   Embedder
	weights domain.Weights
}

// New creates a ranking service.
func New(corpus CorpusReader, embed Embedder, weights domain.Weights) *Service {
	return &Service{corpus: corpus, embed: embed, weights: weights}
}

// Weights returns the configured fusion weights.
func (s *Service) Weights() domain.Weights {
	return s.weights
}

// Search scores every listing and returns the complete ranked sequence,
// final score descending, ties in corpus insertion order. Thresholding
// and top-N truncation are boundary policy and are not applied here.
//
// Exactly one embedding call happens per invocation: the query text.
// Listing embeddings were computed at ingestion and are never recomputed.
func (s *Service) Search(ctx context.Context, q domain.Query) ([]domain.ScoredListing, error) {
	c := s.corpus.Snapshot()
	if !c.Ready() {
		return nil, domain.ErrEngineNotReady
	}

	embRes, err := s.embed.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	queryVec := embRes.Embedding

	results := make([]domain.ScoredListing, c.Len())
	for i := 0; i < c.Len(); i++ {
		listing := c.Listing(i)
		hard := hardScore(listing, q)
		semantic := cosineSimilarity(queryVec, c.Vector(i))
		results[i] = domain.ScoredListing{
			Listing:       listing,
			HardScore:     hard,
			SemanticScore: semantic,
			FinalScore:    s.weights.Hard*hard + s.weights.Semantic*semantic,
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})

	return results, nil
}

// hardScore is the fraction of satisfied hard criteria, in [0,1].
// An absent criterion counts as satisfied, not as a failure. The
// criterion count is derived from the loop so new structured criteria
// keep the formula shape.
func hardScore(l domain.Listing, q domain.Query) float64 {
	criteria := []bool{
		q.MaxPrice == nil || l.Price <= *q.MaxPrice,
		q.MinBedrooms == nil || l.Bedrooms >= *q.MinBedrooms,
	}

	satisfied := 0
	for _, ok := range criteria {
		if ok {
			satisfied++
		}
	}
	return float64(satisfied) / float64(len(criteria))
}
