// Package resolve maps free-text intent queries to audience segment
// candidates, preferring the precomputed keyword table over the vector
// index when either can answer.
package resolve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/audiencelab/segmatch/internal/domain"
	"github.com/audiencelab/segmatch/internal/domain/heuristic"
	"github.com/audiencelab/segmatch/internal/metrics"
)

// Service resolves intent queries against the heuristic table and the
// vector index.
type Service struct {
	matcher Matcher
	embed   Embedder
	index   VectorIndex
	cache   ResultCache
	logger  *zap.Logger
}

// New creates a resolver. matcher and cache may be nil, which disables
// the corresponding stage.
func New(matcher Matcher, embed Embedder, index VectorIndex, cache ResultCache, logger *zap.Logger) *Service {
	return &Service{
		matcher: matcher,
		embed:   embed,
		index:   index,
		cache:   cache,
		logger:  logger,
	}
}

// Resolve maps a query to ranked segment candidates.
//
// The heuristic table is consulted first: on a pattern hit the response
// is synthesized without touching the embedding provider or the index.
// Otherwise the result cache is tried, and only then the full vector
// path runs. Backend failures surface as typed errors, never as an
// empty result.
func (s *Service) Resolve(ctx context.Context, text string, topK int) (domain.SearchResult, error) {
	query, err := domain.NewQuery(text, topK)
	if err != nil {
		metrics.ResolutionsTotal.WithLabelValues("none", "invalid").Inc()
		return domain.SearchResult{}, err
	}

	start := time.Now()

	if s.matcher != nil {
		if topics := s.matcher.Match(query.Text()); len(topics) > 0 {
			candidates := heuristic.Synthesize(topics, query.TopK())
			metrics.ResolutionsTotal.WithLabelValues(string(domain.MethodInstantKeyword), "ok").Inc()
			s.logger.Debug("Resolved via keyword table",
				zap.String("query", query.Text()),
				zap.Int("candidates", len(candidates)),
			)
			return domain.SearchResult{
				Query:      query.Text(),
				Candidates: candidates,
				QueryTime:  time.Since(start),
			}, nil
		}
	}

	if s.cache != nil {
		if candidates, ok := s.cache.Get(query.Text(), query.TopK()); ok {
			metrics.ResolutionsTotal.WithLabelValues(string(domain.MethodVectorSearch), "ok").Inc()
			return domain.SearchResult{
				Query:      query.Text(),
				Candidates: candidates,
				QueryTime:  time.Since(start),
			}, nil
		}
	}

	result, err := s.resolveVector(ctx, query)
	if err != nil {
		metrics.ResolutionsTotal.WithLabelValues(string(domain.MethodVectorSearch), "error").Inc()
		return domain.SearchResult{}, err
	}

	if s.cache != nil {
		s.cache.Put(query.Text(), query.TopK(), result.Candidates)
	}

	metrics.ResolutionsTotal.WithLabelValues(string(domain.MethodVectorSearch), "ok").Inc()
	metrics.ResolutionDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	return result, nil
}

func (s *Service) resolveVector(ctx context.Context, query domain.Query) (domain.SearchResult, error) {
	embStart := time.Now()
	embResult, err := s.embed.Embed(ctx, query.Text())
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("vectorize query: %w", err)
	}
	embeddingTime := time.Since(embStart)
	metrics.ResolutionDuration.WithLabelValues("embedding").Observe(embeddingTime.Seconds())

	vector := domain.Normalize(embResult.Embedding)

	queryStart := time.Now()
	matches, err := s.index.Query(ctx, vector, query.TopK(), true)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("query index: %w", err)
	}
	queryTime := time.Since(queryStart)
	metrics.ResolutionDuration.WithLabelValues("index_query").Observe(queryTime.Seconds())

	candidates := make([]domain.CandidateMatch, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, domain.CandidateMatch{
			SegmentID: m.ID,
			Topic:     m.Metadata.TopicOrFallback(),
			TopicID:   m.Metadata.TopicIDOrFallback(),
			Score:     m.Score,
			Method:    domain.MethodVectorSearch,
		})
	}

	return domain.SearchResult{
		Query:         query.Text(),
		Candidates:    rank(candidates, query.TopK()),
		EmbeddingTime: embeddingTime,
		QueryTime:     queryTime,
	}, nil
}
