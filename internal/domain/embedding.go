package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// Implementations declare a fixed dimensionality and return vectors of
// exactly that length.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	Dimensions() int
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain. TotalTokens is zero on cache hits.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
