package health

import (
	"context"

	"github.com/kailas-cloud/propmatch/internal/corpus"
)

// CorpusReader reports whether a searchable corpus has been published.
type CorpusReader interface {
	Snapshot() *corpus.Corpus
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
