package ranking

import (
	"math"
	"testing"
)

func TestCosineSimilarity_IdenticalVectors(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8}
	got := cosineSimilarity(v, v)
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected 1.0 for identical vectors, got %v", got)
	}
}

func TestCosineSimilarity_OppositeVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{-1, 0}
	got := cosineSimilarity(a, b)
	if math.Abs(got+1.0) > 1e-9 {
		t.Errorf("expected -1.0 for opposite vectors, got %v", got)
	}
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := cosineSimilarity(a, b); got != 0 {
		t.Errorf("expected 0 for orthogonal vectors, got %v", got)
	}
}

func TestCosineSimilarity_ZeroMagnitude(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{0.1, 0.2, 0.3}
	if got := cosineSimilarity(a, b); got != 0 {
		t.Errorf("expected 0 for zero-magnitude vector, got %v", got)
	}
	if got := cosineSimilarity(b, a); got != 0 {
		t.Errorf("expected 0 when other side is zero, got %v", got)
	}
}

func TestCosineSimilarity_Degenerate(t *testing.T) {
	if got := cosineSimilarity(nil, nil); got != 0 {
		t.Errorf("expected 0 for empty vectors, got %v", got)
	}
	if got := cosineSimilarity([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("expected 0 for mismatched dimensions, got %v", got)
	}
}

func TestCosineSimilarity_WithinRange(t *testing.T) {
	vectors := [][]float32{
		{0.1, 0.9, -0.3},
		{-0.7, 0.2, 0.5},
		{5, 5, 5},
		{-0.001, 0.002, -0.003},
	}
	for i, a := range vectors {
		for j, b := range vectors {
			got := cosineSimilarity(a, b)
			if got < -1.0000001 || got > 1.0000001 {
				t.Errorf("cosine(%d,%d)=%v outside [-1,1]", i, j, got)
			}
		}
	}
}
