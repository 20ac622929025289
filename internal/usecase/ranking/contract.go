package ranking

import (
	"context"

	"github.com/kailas-cloud/propmatch/internal/corpus"
	"github.com/kailas-cloud/propmatch/internal/domain"
)

// CorpusReader provides the immutable corpus snapshot for a search pass.
type CorpusReader interface {
	Snapshot() *corpus.Corpus
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
