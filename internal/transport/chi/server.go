package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propmatch/internal/domain"
	healthuc "github.com/kailas-cloud/propmatch/internal/usecase/health"
	rankinguc "github.com/kailas-cloud/propmatch/internal/usecase/ranking"
	"github.com/kailas-cloud/propmatch/internal/version"
)

// Error codes returned in JSON error responses.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeEngineNotReady   = "engine_not_ready"
	codeEmbeddingError   = "embedding_provider_error"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// SearchDefaults carries the boundary policy applied when the request
// leaves threshold or limit unset.
type SearchDefaults struct {
	Threshold float64
	Limit     int
}

// Server exposes the ranking engine over HTTP.
type Server struct {
	ranking       *rankinguc.Service
	health        *healthuc.Service
	corpus        rankinguc.CorpusReader
	defaults      SearchDefaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ranking *rankinguc.Service,
	health *healthuc.Service,
	corpus rankinguc.CorpusReader,
	defaults SearchDefaults,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ranking:  ranking,
		health:   health,
		corpus:   corpus,
		defaults: defaults,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEngineNotReady, http.StatusServiceUnavailable, codeEngineNotReady),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingError),
	}
	return s
}

// Routes registers all handlers on the router.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/", s.Status)
	r.Post("/search", s.SearchListings)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type searchRequest struct {
	Query       string   `json:"query"`
	MaxPrice    *float64 `json:"max_price"`
	MinBedrooms *int     `json:"min_bedrooms"`
	Threshold   *float64 `json:"threshold"`
	Limit       *int     `json:"limit"`
}

type searchResultItem struct {
	Price         float64 `json:"price"`
	Bedrooms      int     `json:"bedrooms"`
	Bathrooms     float64 `json:"bathrooms"`
	City          string  `json:"city,omitempty"`
	Description   string  `json:"description"`
	HardScore     float64 `json:"hard_score"`
	SemanticScore float64 `json:"semantic_score"`
	FinalScore    float64 `json:"final_score"`
}

type searchResponse struct {
	Query        string             `json:"query"`
	Threshold    float64            `json:"threshold"`
	TotalMatches int                `json:"total_matches"`
	Results      []searchResultItem `json:"results"`
}

// SearchListings handles POST /search.
func (s *Server) SearchListings(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := validateSearchRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	threshold := s.defaults.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	limit := s.defaults.Limit
	if req.Limit != nil {
		limit = *req.Limit
	}

	results, err := s.ranking.Search(r.Context(), domain.Query{
		Text:        req.Query,
		MaxPrice:    req.MaxPrice,
		MinBedrooms: req.MinBedrooms,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	matched := make([]searchResultItem, 0, limit)
	total := 0
	for _, res := range results {
		if res.FinalScore < threshold {
			continue
		}
		total++
		if len(matched) < limit {
			matched = append(matched, resultToItem(res))
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:        req.Query,
		Threshold:    threshold,
		TotalMatches: total,
		Results:      matched,
	})
}

func validateSearchRequest(req searchRequest) error {
	if req.Query == "" {
		return errors.New("query is required")
	}
	if req.MaxPrice != nil && *req.MaxPrice < 0 {
		return errors.New("max_price must be non-negative")
	}
	if req.MinBedrooms != nil && *req.MinBedrooms < 0 {
		return errors.New("min_bedrooms must be non-negative")
	}
	if req.Threshold != nil && (*req.Threshold < 0 || *req.Threshold > 1) {
		return errors.New("threshold must be between 0 and 1")
	}
	if req.Limit != nil && *req.Limit <= 0 {
		return errors.New("limit must be positive")
	}
	return nil
}

func resultToItem(res domain.ScoredListing) searchResultItem {
	return searchResultItem{
		Price:         res.Listing.Price,
		Bedrooms:      res.Listing.Bedrooms,
		Bathrooms:     res.Listing.Bathrooms,
		City:          res.Listing.City,
		Description:   res.Listing.Description,
		HardScore:     res.HardScore,
		SemanticScore: res.SemanticScore,
		FinalScore:    res.FinalScore,
	}
}

type statusResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
	Corpus  int    `json:"corpus_size"`
}

// Status handles GET /. Reports whether the engine is serving searches yet.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	c := s.corpus.Snapshot()
	status := "ingesting"
	if c.Ready() {
		status = "ready"
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Service: "propmatch",
		Version: version.Version,
		Status:  status,
		Corpus:  c.Len(),
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEngineNotReady,
		domain.ErrEmbeddingProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
