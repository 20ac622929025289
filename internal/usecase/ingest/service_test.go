package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propmatch/internal/domain"
)

// --- Mocks ---

type mockSource struct {
	rows []domain.RawListing
	err  error
}

func (m *mockSource) Read(_ context.Context) ([]domain.RawListing, error) {
	return m.rows, m.err
}

// mockEmbedder returns a deterministic vector per text and records calls.
type mockEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = []float32{float32(len(text))}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}

func row(price, bedrooms, desc string) domain.RawListing {
	return domain.RawListing{Price: price, Bedrooms: bedrooms, Description: desc}
}

// --- Tests ---

func TestBuild_CleansAndEmbeds(t *testing.T) {
	src := &mockSource{rows: []domain.RawListing{
		{Price: "2000", Bedrooms: "2", Bathrooms: "1.5", City: "Austin", Description: "sunny modern flat"},
		row("3000", "1", "dark basement"),
	}}
	svc := New(src, &mockEmbedder{}, zap.NewNop())

	c, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 listings, got %d", c.Len())
	}
	if c.Listing(0).Price != 2000 || c.Listing(0).Bedrooms != 2 {
		t.Errorf("unexpected first listing: %+v", c.Listing(0))
	}
	if c.Listing(0).Bathrooms != 1.5 {
		t.Errorf("expected bathrooms passthrough, got %v", c.Listing(0).Bathrooms)
	}
	// Vector i must match listing i: mock encodes text length.
	if c.Vector(0)[0] != float32(len("sunny modern flat")) {
		t.Errorf("vector 0 does not match listing 0: %v", c.Vector(0))
	}
	if c.Vector(1)[0] != float32(len("dark basement")) {
		t.Errorf("vector 1 does not match listing 1: %v", c.Vector(1))
	}
}

func TestBuild_DropsRowsWithBadPrice(t *testing.T) {
	src := &mockSource{rows: []domain.RawListing{
		row("not-a-number", "2", "a"),
		row("", "2", "b"),
		row("1500", "2", "c"),
	}}
	svc := New(src, &mockEmbedder{}, zap.NewNop())

	c, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 listing after filtering, got %d", c.Len())
	}
	if c.Listing(0).Price != 1500 {
		t.Errorf("wrong surviving listing: %+v", c.Listing(0))
	}
}

func TestBuild_BedroomsDefaultToZero(t *testing.T) {
	src := &mockSource{rows: []domain.RawListing{
		row("1000", "unknown", "a"),
		row("1000", "", "b"),
		row("1000", "2.0", "c"),
	}}
	svc := New(src, &mockEmbedder{}, zap.NewNop())

	c, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Listing(0).Bedrooms != 0 || c.Listing(1).Bedrooms != 0 {
		t.Error("expected unparseable bedrooms to default to 0")
	}
	if c.Listing(2).Bedrooms != 2 {
		t.Errorf("expected bedrooms 2, got %d", c.Listing(2).Bedrooms)
	}
}

func TestBuild_EmptyDescriptionGetsPlaceholder(t *testing.T) {
	src := &mockSource{rows: []domain.RawListing{
		row("1000", "1", ""),
		row("1000", "1", "   "),
	}}
	svc := New(src, &mockEmbedder{}, zap.NewNop())

	c, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < c.Len(); i++ {
		if c.Listing(i).Description != domain.PlaceholderDescription {
			t.Errorf("listing %d: expected placeholder, got %q", i, c.Listing(i).Description)
		}
		// The embedding input is the placeholder, never the empty string.
		if c.Vector(i)[0] != float32(len(domain.PlaceholderDescription)) {
			t.Errorf("listing %d: embedded text was not the placeholder", i)
		}
	}
}

func TestBuild_SourceError(t *testing.T) {
	src := &mockSource{err: errors.New("file not found")}
	svc := New(src, &mockEmbedder{}, zap.NewNop())

	c, err := svc.Build(context.Background())
	if !errors.Is(err, domain.ErrDataSource) {
		t.Fatalf("expected ErrDataSource, got %v", err)
	}
	if c == nil || c.Ready() {
		t.Error("failed build must return an explicitly empty corpus")
	}
}

func TestBuild_EmptyAfterFiltering(t *testing.T) {
	src := &mockSource{rows: []domain.RawListing{
		row("n/a", "1", "a"),
	}}
	svc := New(src, &mockEmbedder{}, zap.NewNop())

	c, err := svc.Build(context.Background())
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	if c.Ready() {
		t.Error("failed build must return an explicitly empty corpus")
	}
	if !domain.IsIngestionError(err) {
		t.Error("expected IsIngestionError to match")
	}
}

func TestBuild_EmbedderError(t *testing.T) {
	src := &mockSource{rows: []domain.RawListing{row("1000", "1", "a")}}
	embErr := fmt.Errorf("quota: %w", domain.ErrEmbeddingProvider)
	svc := New(src, &mockEmbedder{err: embErr}, zap.NewNop())

	c, err := svc.Build(context.Background())
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
	if c.Ready() {
		t.Error("failed build must return an explicitly empty corpus")
	}
}

func TestBuild_BatchOrderPreserved(t *testing.T) {
	// Many rows with small batches across several workers: vector i must
	// still land at index i.
	var rows []domain.RawListing
	for i := 0; i < 97; i++ {
		rows = append(rows, row("1000", "1", "listing "+strings.Repeat("x", i+1)))
	}
	src := &mockSource{rows: rows}
	emb := &mockEmbedder{}
	svc := New(src, emb, zap.NewNop()).WithBatching(8, 10)

	c, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 97 {
		t.Fatalf("expected 97 listings, got %d", c.Len())
	}
	for i := 0; i < c.Len(); i++ {
		want := float32(len(c.Listing(i).Description))
		if c.Vector(i)[0] != want {
			t.Fatalf("vector %d misaligned: got %v, want %v", i, c.Vector(i)[0], want)
		}
	}
	if emb.calls != 10 {
		t.Errorf("expected 10 batch calls for 97 rows at batch size 10, got %d", emb.calls)
	}
}
