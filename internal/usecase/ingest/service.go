// Package ingest builds the listing corpus: row cleaning, description
// embedding, and publication of an immutable corpus. Ingestion is
// all-or-nothing; a failed build leaves an explicitly empty corpus.
package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propmatch/internal/corpus"
	"github.com/kailas-cloud/propmatch/internal/domain"
	"github.com/kailas-cloud/propmatch/internal/metrics"
)

// Service builds a corpus from a raw data source.
type Service struct {
	source    Source
	embed     Embedder
	workers   int
	batchSize int
	logger    *zap.Logger
}

// New creates an ingestion service.
func New(source Source, embed Embedder, logger *zap.Logger) *Service {
	return &Service{
		source:    source,
		embed:     embed,
		workers:   4,
		batchSize: 50,
		logger:    logger,
	}
}

// WithBatching configures embedding concurrency and batch size.
func (s *Service) WithBatching(workers, batchSize int) *Service {
	if workers > 0 {
		s.workers = workers
	}
	if batchSize > 0 {
		s.batchSize = batchSize
	}
	return s
}

// Build reads the source, cleans rows, embeds every description once and
// returns the corpus. On any failure the returned corpus is corpus.Empty()
// so callers can tell "no data" from "no matches".
func (s *Service) Build(ctx context.Context) (*corpus.Corpus, error) {
	start := time.Now()

	rows, err := s.source.Read(ctx)
	if err != nil {
		return corpus.Empty(), fmt.Errorf("%w: %w", domain.ErrDataSource, err)
	}
	metrics.IngestRowsTotal.Add(float64(len(rows)))

	listings := s.cleanRows(rows)
	if len(listings) == 0 {
		return corpus.Empty(), domain.ErrEmptyCorpus
	}

	s.logger.Info("Vectorizing listing descriptions",
		zap.Int("listings", len(listings)),
		zap.Int("workers", s.workers),
		zap.Int("batch_size", s.batchSize),
	)

	vectors, err := s.embedAll(ctx, listings)
	if err != nil {
		return corpus.Empty(), fmt.Errorf("embed corpus: %w", err)
	}

	c, err := corpus.New(listings, vectors)
	if err != nil {
		return corpus.Empty(), err
	}

	took := time.Since(start)
	metrics.IngestBuildDuration.Observe(took.Seconds())
	metrics.CorpusSize.Set(float64(c.Len()))
	s.logger.Info("Corpus built",
		zap.Int("listings", c.Len()),
		zap.Duration("took", took),
	)
	return c, nil
}

// cleanRows normalizes raw rows.
// Rows without a numeric price are dropped; bedrooms default to 0 on
// parse failure; empty descriptions get the placeholder so the embedding
// provider never sees an empty string.
func (s *Service) cleanRows(rows []domain.RawListing) []domain.Listing {
	listings := make([]domain.Listing, 0, len(rows))
	dropped := 0

	for _, r := range rows {
		price, err := strconv.ParseFloat(strings.TrimSpace(r.Price), 64)
		if err != nil {
			dropped++
			metrics.IngestRowsDropped.WithLabelValues("bad_price").Inc()
			continue
		}

		desc := strings.TrimSpace(r.Description)
		if desc == "" {
			desc = domain.PlaceholderDescription
		}

		listings = append(listings, domain.Listing{
			Price:       price,
			Bedrooms:    parseBedrooms(r.Bedrooms),
			Bathrooms:   parseBathrooms(r.Bathrooms),
			City:        strings.TrimSpace(r.City),
			Description: desc,
		})
	}

	if dropped > 0 {
		s.logger.Info("Dropped rows without numeric price", zap.Int("dropped", dropped))
	}
	return listings
}

func parseBedrooms(s string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(v)
}

func parseBathrooms(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// embedAll vectorizes descriptions in batches over a worker pool,
// writing each batch into its own index range so vector i always
// matches listing i regardless of completion order.
func (s *Service) embedAll(ctx context.Context, listings []domain.Listing) ([][]float32, error) {
	vectors := make([][]float32, len(listings))

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for batchStart := 0; batchStart < len(listings); batchStart += s.batchSize {
		batchEnd := min(batchStart+s.batchSize, len(listings))

		texts := make([]string, 0, batchEnd-batchStart)
		for _, l := range listings[batchStart:batchEnd] {
			texts = append(texts, l.Description)
		}

		lo, hi := batchStart, batchEnd
		wg.Add(1)
		if submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}

			res, err := s.embed.BatchEmbed(ctx, texts)
			if err != nil {
				fail(err)
				return
			}
			if len(res.Embeddings) != hi-lo {
				fail(fmt.Errorf("batch [%d:%d]: expected %d vectors, got %d",
					lo, hi, hi-lo, len(res.Embeddings)))
				return
			}
			copy(vectors[lo:hi], res.Embeddings)
		}); submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit batch: %w", submitErr))
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}
