// Package chi is the HTTP transport: a small JSON API over the resolver,
// health, and stats services.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/audiencelab/segmatch/internal/domain"
	"github.com/audiencelab/segmatch/internal/transport/pinecone"
	healthuc "github.com/audiencelab/segmatch/internal/usecase/health"
)

// Resolver maps intent queries to segment candidates.
type Resolver interface {
	Resolve(ctx context.Context, query string, topK int) (domain.SearchResult, error)
}

// HealthService aggregates component health checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// IndexStats describes the vector index contents.
type IndexStats interface {
	DescribeStats(ctx context.Context) (pinecone.Stats, error)
}

// PatternTable exposes the heuristic table for the stats endpoint.
type PatternTable interface {
	Patterns() []string
	Len() int
}

// Error response codes kept stable for API consumers.
const (
	codeBadRequest           = "bad_request"
	codeInvalidQuery         = "invalid_query"
	codeEmbeddingUnavailable = "embedding_unavailable"
	codeRateLimited          = "rate_limited"
	codeTimeout              = "timeout"
	codeUpstreamError        = "upstream_error"
	codeInternalError        = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the HTTP API handlers.
type Server struct {
	resolver      Resolver
	health        HealthService
	stats         IndexStats
	patterns      PatternTable
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. stats and patterns may be nil; the
// corresponding /stats sections are then omitted.
func NewServer(
	resolver Resolver,
	health HealthService,
	stats IndexStats,
	patterns PatternTable,
	logger *zap.Logger,
) *Server {
	s := &Server{
		resolver: resolver,
		health:   health,
		stats:    stats,
		patterns: patterns,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, codeEmbeddingUnavailable),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout),
		sentinelHandler(domain.ErrAuthenticationFailed, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrBackendUnreachable, http.StatusBadGateway, codeUpstreamError),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusInternalServerError, codeInternalError),
	}
	return s
}

// Routes registers all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.Search)
	r.Get("/health", s.HealthCheck)
	r.Get("/stats", s.Stats)
	r.Get("/metrics", s.Metrics)
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type resultItem struct {
	SegmentID string  `json:"segment_id"`
	Topic     string  `json:"topic"`
	TopicID   string  `json:"topic_id"`
	Score     float64 `json:"score"`
	Method    string  `json:"method"`
}

type searchResponse struct {
	Results       []resultItem `json:"results"`
	Query         string       `json:"query"`
	TotalTime     float64      `json:"total_time"`
	EmbeddingTime float64      `json:"embedding_time"`
	QueryTime     float64      `json:"query_time"`
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.resolver.Resolve(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]resultItem, len(result.Candidates))
	for i, c := range result.Candidates {
		items[i] = resultItem{
			SegmentID: c.SegmentID,
			Topic:     c.Topic,
			TopicID:   c.TopicID,
			Score:     c.Score,
			Method:    string(c.Method),
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results:       items,
		Query:         result.Query,
		TotalTime:     result.TotalTime().Seconds(),
		EmbeddingTime: result.EmbeddingTime.Seconds(),
		QueryTime:     result.QueryTime.Seconds(),
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

type statsResponse struct {
	PatternCount      int      `json:"pattern_count"`
	SupportedKeywords []string `json:"supported_keywords,omitempty"`
	TotalVectors      *int     `json:"total_vectors,omitempty"`
	Dimension         *int     `json:"dimension,omitempty"`
	Metric            string   `json:"metric,omitempty"`
}

// Stats handles GET /stats. Index stats are best-effort: an unreachable
// index leaves the fields empty rather than failing the endpoint.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{}

	if s.patterns != nil {
		resp.PatternCount = s.patterns.Len()
		resp.SupportedKeywords = s.patterns.Patterns()
	}

	if s.stats != nil {
		stats, err := s.stats.DescribeStats(r.Context())
		if err != nil {
			s.logger.Warn("Failed to describe index stats", zap.Error(err))
		} else {
			resp.TotalVectors = &stats.TotalVectorCount
			resp.Dimension = &stats.Dimension
			resp.Metric = stats.Metric
		}
	}

	writeJSON(w, http.StatusOK, resp)
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
		domain.ErrInvalidQuery,
		domain.ErrEmbeddingUnavailable,
		domain.ErrRateLimited,
		domain.ErrTimeout,
		domain.ErrAuthenticationFailed,
		domain.ErrBackendUnreachable,
		domain.ErrDimensionMismatch,
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
