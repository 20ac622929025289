package domain

import "errors"

var (
	// ErrDataSource signals an unreadable or malformed data source.
	ErrDataSource = errors.New("data source unreadable")
	// ErrEmptyCorpus signals a readable source with zero valid listings after filtering.
	ErrEmptyCorpus = errors.New("no valid listings after filtering")
	// ErrEngineNotReady signals a search against an empty or unbuilt corpus.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
)

// IsIngestionError reports whether err originated in corpus ingestion.
// Callers use it to distinguish a corpus that failed to build from one
// that is merely still building.
func IsIngestionError(err error) bool {
	return errors.Is(err, ErrDataSource) || errors.Is(err, ErrEmptyCorpus)
}
