// Package pinecone is a REST data-plane client for the remote vector index.
// Only the operations the resolver and the ingestion tooling depend on are
// implemented: query, upsert, delete-all, describe-stats.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/audiencelab/segmatch/internal/domain"
)

// maxUpsertBatch caps vectors per upsert request, matching the backend's
// batch limit.
const maxUpsertBatch = 100

// upsertConcurrency bounds parallel upsert batches.
const upsertConcurrency = 4

// Match is a single nearest-neighbor hit.
type Match struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// Metadata is the explicit optional-field schema for index payloads. Missing
// fields resolve to domain.MetadataFallback via the accessors.
type Metadata struct {
	Topic   *string `json:"topic,omitempty"`
	TopicID *string `json:"topic_ID,omitempty"`
}

// TopicOrFallback returns the topic label or the fallback literal.
func (m *Metadata) TopicOrFallback() string {
	if m.Topic == nil || *m.Topic == "" {
		return domain.MetadataFallback
	}
	return *m.Topic
}

// TopicIDOrFallback returns the topic id or the fallback literal.
func (m *Metadata) TopicIDOrFallback() string {
	if m.TopicID == nil || *m.TopicID == "" {
		return domain.MetadataFallback
	}
	return *m.TopicID
}

// Vector is an upsert payload item.
type Vector struct {
	ID       string    `json:"id"`
	Values   []float32 `json:"values"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Stats describes the index contents.
type Stats struct {
	TotalVectorCount int    `json:"totalVectorCount"`
	Dimension        int    `json:"dimension"`
	Metric           string `json:"metric"`
}

// Config holds index connection settings.
type Config struct {
	Host       string // index data-plane endpoint, e.g. https://idx-xyz.svc.pinecone.io
	APIKey     string
	Dimensions int
	MaxTopK    int
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Client talks to one index over its REST data plane. The underlying
// http.Client is shared and reused for the process lifetime.
type Client struct {
	host       string
	apiKey     string
	dimensions int
	maxTopK    int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an index client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		host:       cfg.Host,
		apiKey:     cfg.APIKey,
		dimensions: cfg.Dimensions,
		maxTopK:    cfg.MaxTopK,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Dimensions returns the index's configured dimensionality.
func (c *Client) Dimensions() int { return c.dimensions }

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

// Query runs a nearest-neighbor search. The vector length is validated
// against the index dimensionality before any network I/O; a mismatch is a
// deployment fault, not a transient condition.
func (c *Client) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]Match, error) {
	if len(vector) != c.dimensions {
		c.logger.Error("Query vector dimensionality mismatch",
			zap.Int("index_dimensions", c.dimensions),
			zap.Int("vector_dimensions", len(vector)),
		)
		return nil, fmt.Errorf(
			"query vector has %d dims, index expects %d: %w",
			len(vector), c.dimensions, domain.ErrDimensionMismatch,
		)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d: %w", topK, domain.ErrInvalidQuery)
	}
	if c.maxTopK > 0 && topK > c.maxTopK {
		topK = c.maxTopK
	}

	var resp queryResponse
	if err := c.post(ctx, "/query", queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: includeMetadata,
	}, &resp); err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}
	return resp.Matches, nil
}

type upsertRequest struct {
	Vectors []Vector `json:"vectors"`
}

// Upsert writes vectors in batches of at most maxUpsertBatch, fanning the
// batches out with bounded concurrency. Used by administrative ingestion,
// never on the query path.
func (c *Client) Upsert(ctx context.Context, vectors []Vector) error {
	for i := range vectors {
		if len(vectors[i].Values) != c.dimensions {
			return fmt.Errorf(
				"vector %q has %d dims, index expects %d: %w",
				vectors[i].ID, len(vectors[i].Values), c.dimensions, domain.ErrDimensionMismatch,
			)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(upsertConcurrency)

	for start := 0; start < len(vectors); start += maxUpsertBatch {
		end := start + maxUpsertBatch
		if end > len(vectors) {
			end = len(vectors)
		}
		batch := vectors[start:end]
		g.Go(func() error {
			if err := c.post(gctx, "/vectors/upsert", upsertRequest{Vectors: batch}, nil); err != nil {
				return fmt.Errorf("upsert batch at %q: %w", batch[0].ID, err)
			}
			return nil
		})
	}

	return g.Wait() //nolint:wrapcheck // batch errors are wrapped above
}

// DeleteAll removes every vector from the index. Administrative only.
func (c *Client) DeleteAll(ctx context.Context) error {
	if err := c.post(ctx, "/vectors/delete", map[string]bool{"deleteAll": true}, nil); err != nil {
		return fmt.Errorf("delete all: %w", err)
	}
	return nil
}

// DescribeStats reports the index contents. The backend omits the metric
// from stats; it is fixed at cosine for this index family.
func (c *Client) DescribeStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := c.post(ctx, "/describe_index_stats", struct{}{}, &stats); err != nil {
		return Stats{}, fmt.Errorf("describe stats: %w", err)
	}
	if stats.Metric == "" {
		stats.Metric = "cosine"
	}
	return stats, nil
}

// Ping verifies index reachability for health checks.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.DescribeStats(ctx)
	return err
}

// post sends a JSON request and decodes the response into out (when non-nil).
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.mapStatusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// mapTransportError distinguishes timeouts from connection failures.
func mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", domain.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s", domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %s", domain.ErrBackendUnreachable, err)
}

// mapStatusError translates HTTP error statuses into the domain taxonomy.
func (c *Client) mapStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := string(bytes.TrimSpace(body))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("index API %d: %s: %w", resp.StatusCode, detail, domain.ErrAuthenticationFailed)
	case http.StatusTooManyRequests:
		return fmt.Errorf("index API %d: %s: %w", resp.StatusCode, detail, domain.ErrRateLimited)
	case http.StatusGatewayTimeout:
		return fmt.Errorf("index API %d: %s: %w", resp.StatusCode, detail, domain.ErrTimeout)
	default:
		return fmt.Errorf("index API %d: %s: %w", resp.StatusCode, detail, domain.ErrBackendUnreachable)
	}
}
