package resultcache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/audiencelab/segmatch/internal/domain"
)

// Cache keeps recently resolved candidate lists in process memory.
// Entries expire after the configured TTL so index updates become
// visible without a restart.
type Cache struct {
	lru        *expirable.LRU[string, []domain.CandidateMatch]
	cacheTotal *prometheus.CounterVec
}

// New creates a result cache with the given capacity and TTL.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(size int, ttl time.Duration, cacheTotal *prometheus.CounterVec) *Cache {
	return &Cache{
		lru:        expirable.NewLRU[string, []domain.CandidateMatch](size, nil, ttl),
		cacheTotal: cacheTotal,
	}
}

// Get returns the cached candidates for a query, if present.
func (c *Cache) Get(query string, topK int) ([]domain.CandidateMatch, bool) {
	candidates, ok := c.lru.Get(cacheKey(query, topK))
	if ok {
		c.incCache("hit")
	} else {
		c.incCache("miss")
	}
	return candidates, ok
}

// Put stores resolved candidates for a query.
func (c *Cache) Put(query string, topK int, candidates []domain.CandidateMatch) {
	c.lru.Add(cacheKey(query, topK), candidates)
}

// Len reports the number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(query string, topK int) string {
	return fmt.Sprintf("%d:%s", topK, query)
}
