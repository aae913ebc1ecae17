package domain

import (
	"fmt"
	"strings"
)

// DefaultTopK is the result count used when a request does not specify top_k.
const DefaultTopK = 5

// Query is a single intent query. Created per request, discarded after
// resolution.
type Query struct {
	text string
	topK int
}

// NewQuery validates and builds a query. topK == 0 means "use the default".
func NewQuery(text string, topK int) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, fmt.Errorf("%w: query text is empty", ErrInvalidQuery)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < 0 {
		return Query{}, fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidQuery, topK)
	}
	return Query{text: text, topK: topK}, nil
}

// Text returns the raw user-supplied query text.
func (q *Query) Text() string { return q.text }

// TopK returns the maximum number of results to return.
func (q *Query) TopK() int { return q.topK }
