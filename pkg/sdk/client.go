package propmatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Sentinel errors matched against the service's error codes.
// Use errors.Is() to check.
var (
	// ErrEngineNotReady means ingestion has not published a corpus yet.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrEmbeddingProvider means the upstream embedding provider failed.
	ErrEmbeddingProvider = errors.New("embedding provider error")
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("propmatch: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Is maps well-known error codes to sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrEngineNotReady:
		return e.Code == "engine_not_ready"
	case ErrEmbeddingProvider:
		return e.Code == "embedding_provider_error"
	}
	return false
}

// Client is the propmatch SDK entry point.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the Bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchRequest is a listing search. Query is required; the remaining
// fields fall back to server-side defaults when nil.
type SearchRequest struct {
	Query       string   `json:"query"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	MinBedrooms *int     `json:"min_bedrooms,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty"`
	Limit       *int     `json:"limit,omitempty"`
}

// SearchResult is one ranked listing.
type SearchResult struct {
	Price         float64 `json:"price"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     float64 `json:"bathrooms"`
	City          string  `json:"city"`
	Description   string  `json:"description"`
	HardScore     float64 `json:"hard_score"`
	SemanticScore float64 `json:"semantic_score"`
	FinalScore    float64 `json:"final_score"`
}

// SearchResponse is the ranked result page.
type SearchResponse struct {
	Query        string         `json:"query"`
	Threshold    float64        `json:"threshold"`
	TotalMatches int            `json:"total_matches"`
	Results      []SearchResult `json:"results"`
}

// Search runs a ranked listing search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	var resp SearchResponse
	if err := c.do(ctx, http.MethodPost, "/search", req, &resp); err != nil {
		return SearchResponse{}, err
	}
	return resp, nil
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health checks the health of all service components. A degraded
// report is returned as a value, not an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("propmatch: build request: %w", err)
	}
	c.setHeaders(httpReq)

	res, err := c.httpc.Do(httpReq)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("propmatch: health: %w", err)
	}
	defer res.Body.Close()

	// /health uses 503 for degraded but still returns the report body.
	var status HealthStatus
	if err := json.NewDecoder(res.Body).Decode(&status); err != nil {
		return HealthStatus{}, fmt.Errorf("propmatch: decode health response: %w", err)
	}
	return status, nil
}

// Status describes the service readiness.
type Status struct {
	Service    string `json:"service"`
	Version    string `json:"version"`
	Status     string `json:"status"`
	CorpusSize int    `json:"corpus_size"`
}

// Status reports whether the engine is serving searches yet.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "/", nil, &st); err != nil {
		return Status{}, err
	}
	return st, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("propmatch: encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("propmatch: build request: %w", err)
	}
	c.setHeaders(httpReq)

	res, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("propmatch: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeAPIError(res)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("propmatch: decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func decodeAPIError(res *http.Response) error {
	apiErr := &APIError{StatusCode: res.StatusCode}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err == nil {
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(res.StatusCode)
	}
	return apiErr
}

// Float returns a pointer to v. Helper for optional request fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v. Helper for optional request fields.
func Int(v int) *int { return &v }
