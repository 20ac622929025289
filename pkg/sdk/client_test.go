package propmatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch_Success(t *testing.T) {
	var gotAuth string
	var gotBody SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Query:        gotBody.Query,
			Threshold:    0.7,
			TotalMatches: 1,
			Results: []SearchResult{
				{Price: 2000, Bedrooms: 2, Description: "sunny flat", FinalScore: 0.95},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, WithAPIKey("secret"))
	resp, err := client.Search(context.Background(), SearchRequest{
		Query:       "sunny flat",
		MaxPrice:    Float(2500),
		MinBedrooms: Int(2),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("authorization header: got %q", gotAuth)
	}
	if gotBody.MaxPrice == nil || *gotBody.MaxPrice != 2500 {
		t.Errorf("max_price not forwarded: %v", gotBody.MaxPrice)
	}
	if len(resp.Results) != 1 || resp.Results[0].Description != "sunny flat" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
	if resp.TotalMatches != 1 {
		t.Errorf("total_matches: got %d, want 1", resp.TotalMatches)
	}
}

func TestSearch_EngineNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"code":"engine_not_ready","message":"engine not ready"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Search(context.Background(), SearchRequest{Query: "flat"})
	if !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status code: got %d, want %d", apiErr.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestSearch_EmbeddingProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code":"embedding_provider_error","message":"embedding provider error"}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Search(context.Background(), SearchRequest{Query: "flat"})
	if !errors.Is(err, ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
}

func TestSearch_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.Search(context.Background(), SearchRequest{Query: "flat"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message == "" {
		t.Error("expected fallback message for non-JSON body")
	}
}

func TestHealth_DegradedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(HealthStatus{
			Status: "degraded",
			Checks: map[string]string{"corpus": "error", "embedding": "ok"},
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	status, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if status.Status != "degraded" {
		t.Errorf("status: got %q, want %q", status.Status, "degraded")
	}
	if status.Checks["corpus"] != "error" {
		t.Errorf("corpus check: got %q", status.Checks["corpus"])
	}
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Status{
			Service:    "propmatch",
			Status:     "ready",
			CorpusSize: 42,
		})
	}))
	defer srv.Close()

	client := New(srv.URL)
	st, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Status != "ready" || st.CorpusSize != 42 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path: got %q, want %q", r.URL.Path, "/search")
		}
		_ = json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	client := New(srv.URL + "/")
	if _, err := client.Search(context.Background(), SearchRequest{Query: "flat"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
}
