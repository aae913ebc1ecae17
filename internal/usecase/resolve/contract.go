package resolve

import (
	"context"

	"github.com/audiencelab/segmatch/internal/domain"
	"github.com/audiencelab/segmatch/internal/transport/pinecone"
)

// Matcher short-circuits known query shapes to precomputed topics.
type Matcher interface {
	Match(query string) []string
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorIndex runs nearest-neighbor queries against the segment index.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]pinecone.Match, error)
}

// ResultCache keeps resolved candidate lists for repeated queries.
type ResultCache interface {
	Get(query string, topK int) ([]domain.CandidateMatch, bool)
	Put(query string, topK int, candidates []domain.CandidateMatch)
}
