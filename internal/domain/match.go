package domain

import "time"

// Method identifies how a resolution was answered. Wire values are kept
// stable for API consumers.
type Method string

const (
	// MethodInstantKeyword marks results synthesized from the heuristic table.
	MethodInstantKeyword Method = "instant_keyword_match"
	// MethodVectorSearch marks results returned by the vector index.
	MethodVectorSearch Method = "semantic_search"
)

// MetadataFallback is substituted for topic/topic_id when the index match
// carries no metadata.
const MetadataFallback = "N/A"

// CandidateMatch is a single scored segment candidate. Score is only
// meaningfully comparable within a single response: instant-path scores are
// synthetic ranks, vector-path scores are cosine similarities.
type CandidateMatch struct {
	SegmentID string
	Topic     string
	TopicID   string
	Score     float64
	Method    Method
}

// SearchResult is the uniform resolution envelope: ranked candidates plus a
// timing breakdown. The instant path reports zero embedding and query time.
type SearchResult struct {
	Query         string
	Candidates    []CandidateMatch
	EmbeddingTime time.Duration
	QueryTime     time.Duration
}

// TotalTime is the end-to-end backend time of the resolution.
func (r *SearchResult) TotalTime() time.Duration {
	return r.EmbeddingTime + r.QueryTime
}

// Method reports the resolution method. A result is produced by exactly one
// method, never a blend.
func (r *SearchResult) Method() Method {
	if len(r.Candidates) == 0 {
		return MethodVectorSearch
	}
	return r.Candidates[0].Method
}
