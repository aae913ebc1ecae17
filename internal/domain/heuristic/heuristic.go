// Package heuristic implements the instant keyword path: a small ordered
// pattern table that short-circuits embedding and backend calls for common
// queries. The scan is first-match-wins in table insertion order, so the
// table is a slice, not a map — entry order is part of the contract.
package heuristic

import (
	"fmt"
	"strings"

	"github.com/audiencelab/segmatch/internal/domain"
)

// Entry maps a lowercase substring pattern to its curated topic labels.
type Entry struct {
	Pattern string
	Topics  []string
}

// Matcher scans a read-only pattern table. Loaded once at startup, never
// mutated at request time; safe for concurrent use.
type Matcher struct {
	entries []Entry
}

// NewMatcher builds a matcher from ordered entries. Patterns are lowercased;
// empty patterns or topic lists are rejected.
func NewMatcher(entries []Entry) (*Matcher, error) {
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		p := strings.ToLower(strings.TrimSpace(e.Pattern))
		if p == "" {
			return nil, fmt.Errorf("entry %d: empty pattern", i)
		}
		if len(e.Topics) == 0 {
			return nil, fmt.Errorf("entry %d (%q): no topics", i, p)
		}
		out = append(out, Entry{Pattern: p, Topics: e.Topics})
	}
	return &Matcher{entries: out}, nil
}

// Default returns the curated table of common intent queries. The order
// matters: an earlier pattern wins when several are substrings of the same
// query.
func Default() *Matcher {
	m, err := NewMatcher([]Entry{
		{Pattern: "digital marketing", Topics: []string{"Digital Marketing", "Marketing Skills", "Digital Agency"}},
		{Pattern: "business", Topics: []string{"Business", "Entrepreneurship", "Startup"}},
		{Pattern: "weight loss", Topics: []string{"Weight Loss", "Fitness", "Health"}},
		{Pattern: "lose weight", Topics: []string{"Weight Loss", "Fitness", "Health"}},
		{Pattern: "productivity", Topics: []string{"Productivity", "Time Management", "Work"}},
		{Pattern: "sleep", Topics: []string{"Sleep", "Health", "Wellness"}},
		{Pattern: "coding", Topics: []string{"Programming", "Technology", "Software"}},
		{Pattern: "investment", Topics: []string{"Investment", "Finance", "Stocks"}},
		{Pattern: "vacation", Topics: []string{"Travel", "Vacation", "Leisure"}},
		{Pattern: "house", Topics: []string{"Real Estate", "Home Buying", "Property"}},
		{Pattern: "podcast", Topics: []string{"Podcasting", "Content Creation", "Media"}},
		{Pattern: "marketing", Topics: []string{"Marketing", "Digital Marketing", "Advertising"}},
		{Pattern: "fitness", Topics: []string{"Fitness", "Health", "Exercise"}},
		{Pattern: "technology", Topics: []string{"Technology", "Software", "Programming"}},
		{Pattern: "finance", Topics: []string{"Finance", "Investment", "Money"}},
		{Pattern: "education", Topics: []string{"Education", "Learning", "Training"}},
	})
	if err != nil {
		panic(err) // static table, cannot fail
	}
	return m
}

// Match scans the table in insertion order and returns the topics of the
// first pattern contained in the lowercased query. Returns nil on no match;
// never fails. Linear in table size, which stays in the tens of entries.
func (m *Matcher) Match(query string) []string {
	q := strings.ToLower(query)
	for _, e := range m.entries {
		if strings.Contains(q, e.Pattern) {
			return e.Topics
		}
	}
	return nil
}

// Patterns returns the table's patterns in insertion order.
func (m *Matcher) Patterns() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Pattern
	}
	return out
}

// Len returns the table size.
func (m *Matcher) Len() int { return len(m.entries) }

// Synthesize turns matched topics into deterministic instant candidates:
// score 0.9 - 0.1*rank (floored at zero), synthetic segment and topic ids.
// Reproducible output independent of any backend is the point of this path.
func Synthesize(topics []string, topK int) []domain.CandidateMatch {
	if len(topics) > topK {
		topics = topics[:topK]
	}
	out := make([]domain.CandidateMatch, len(topics))
	for i, topic := range topics {
		score := 0.9 - 0.1*float64(i)
		if score < 0 {
			score = 0
		}
		out[i] = domain.CandidateMatch{
			SegmentID: fmt.Sprintf("segment_common_%d", i),
			Topic:     topic,
			TopicID:   fmt.Sprintf("common_%d", i),
			Score:     score,
			Method:    domain.MethodInstantKeyword,
		}
	}
	return out
}
