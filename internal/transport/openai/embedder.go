// Package openai implements the embedding provider over an OpenAI-compatible
// embeddings API (hosted inference for the bge-large and MiniLM model
// families used by the segment index).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/audiencelab/segmatch/internal/domain"
	"github.com/audiencelab/segmatch/internal/metrics"
)

// Embedder is an embedding provider using the OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	provider   string
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Provider   string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		provider:   cfg.Provider,
		logger:     cfg.Logger,
	}
}

// Dimensions returns the provider's declared vector length.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed implements domain.Embedder with transport-level metrics.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "api_error").Inc()
		return domain.EmbeddingResult{}, mapAPIError(err)
	}

	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "empty_response").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingUnavailable)
	}

	vec := resp.Data[0].Embedding
	if len(vec) != e.dimensions {
		// Model/index configuration disagreement; surface loudly.
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "dimension").Inc()
		e.logger.Error("Embedding dimensionality mismatch",
			zap.String("model", string(e.model)),
			zap.Int("declared", e.dimensions),
			zap.Int("got", len(vec)),
		)
		return domain.EmbeddingResult{}, fmt.Errorf(
			"model %s returned %d dims, declared %d: %w",
			e.model, len(vec), e.dimensions, domain.ErrDimensionMismatch,
		)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, string(e.model)).Observe(duration.Seconds())

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// mapAPIError translates transport failures into the domain error taxonomy.
// Timeouts are distinguished from connection failures so callers can apply
// different retry policies.
func mapAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("embedding request: %w", domain.ErrTimeout)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("embedding request: %w", domain.ErrTimeout)
		}
		return fmt.Errorf("embedding request: %w", domain.ErrBackendUnreachable)
	}

	if status, detail, ok := apiStatus(err); ok {
		switch status {
		case 401, 403:
			return fmt.Errorf("embedding API %d: %s: %w", status, detail, domain.ErrAuthenticationFailed)
		case 429:
			return fmt.Errorf("embedding API %d: %s: %w", status, detail, domain.ErrRateLimited)
		default:
			return fmt.Errorf("embedding API %d: %s: %w", status, detail, domain.ErrEmbeddingUnavailable)
		}
	}

	return fmt.Errorf("embedding request failed: %w", domain.ErrEmbeddingUnavailable)
}

// apiStatus extracts the HTTP status and a human-readable detail from a
// go-openai error.
func apiStatus(err error) (int, string, bool) {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, extractDetail(reqErr.Body), true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, apiErr.Message, true
	}

	return 0, "", false
}

// extractDetail pulls the "detail" field out of a JSON error body, the
// format TEI-style inference servers use.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return string(body)
}
