// Package embedding holds the provider decorator chain: lazy one-time
// initialization, instrumentation, and the keyword-only stub.
package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/audiencelab/segmatch/internal/domain"
)

// InitFunc constructs the underlying provider. Expected to be expensive
// (model warmup, connection setup) and is invoked at most once per process.
type InitFunc func() (domain.Embedder, error)

// LazyEmbedder defers provider construction to first use. Concurrent first
// callers share a single initialization; an initialization failure is cached
// and returned to every subsequent caller rather than retried, so a broken
// deployment fails fast instead of hammering the backend.
type LazyEmbedder struct {
	dimensions int
	init       InitFunc

	once  sync.Once
	inner domain.Embedder
	err   error
}

// NewLazyEmbedder wraps an initializer. dimensions is the provider's declared
// vector length, known from configuration before initialization runs.
func NewLazyEmbedder(dimensions int, init InitFunc) *LazyEmbedder {
	return &LazyEmbedder{dimensions: dimensions, init: init}
}

// Dimensions returns the declared vector length.
func (l *LazyEmbedder) Dimensions() int { return l.dimensions }

// Embed initializes the provider on first call and delegates. Empty input is
// rejected before triggering initialization.
func (l *LazyEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.EmbeddingResult{}, fmt.Errorf("empty input text: %w", domain.ErrEmbeddingUnavailable)
	}

	inner, err := l.get()
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	result, err := inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("lazy embed: %w", err)
	}
	return result, nil
}

// HealthCheck initializes the provider if needed and delegates when the
// provider supports health checks.
func (l *LazyEmbedder) HealthCheck(ctx context.Context) error {
	inner, err := l.get()
	if err != nil {
		return err
	}
	if hc, ok := inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedder health: %w", err)
		}
	}
	return nil
}

func (l *LazyEmbedder) get() (domain.Embedder, error) {
	l.once.Do(func() {
		l.inner, l.err = l.init()
	})
	if l.err != nil {
		return nil, fmt.Errorf("provider init: %v: %w", l.err, domain.ErrEmbeddingUnavailable)
	}
	return l.inner, nil
}
