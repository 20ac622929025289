package ingest

import (
	"context"

	"github.com/kailas-cloud/propmatch/internal/domain"
)

// Source yields raw listing rows from the external dataset.
type Source interface {
	Read(ctx context.Context) ([]domain.RawListing, error)
}

// Embedder vectorizes listing descriptions in batches.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
