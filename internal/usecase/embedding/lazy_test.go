package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/audiencelab/segmatch/internal/domain"
)

type stubEmbedder struct {
	vec    []float32
	err    error
	calls  atomic.Int32
	dims   int
	hcErr  error
	hcDone bool
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec}, nil
}

func (s *stubEmbedder) Dimensions() int { return s.dims }

func (s *stubEmbedder) HealthCheck(_ context.Context) error {
	s.hcDone = true
	return s.hcErr
}

func TestLazyEmbedder_InitOnce(t *testing.T) {
	var inits atomic.Int32
	stub := &stubEmbedder{vec: []float32{0.5}, dims: 1}

	lazy := NewLazyEmbedder(1, func() (domain.Embedder, error) {
		inits.Add(1)
		return stub, nil
	})

	const callers = 32
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if _, err := lazy.Embed(context.Background(), "hello"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := inits.Load(); got != 1 {
		t.Fatalf("expected exactly 1 init, got %d", got)
	}
	if stub.calls.Load() != callers {
		t.Fatalf("expected %d embed calls, got %d", callers, stub.calls.Load())
	}
}

func TestLazyEmbedder_InitFailureCached(t *testing.T) {
	var inits atomic.Int32

	lazy := NewLazyEmbedder(1, func() (domain.Embedder, error) {
		inits.Add(1)
		return nil, errors.New("weights missing")
	})

	for i := 0; i < 3; i++ {
		_, err := lazy.Embed(context.Background(), "hello")
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			t.Fatalf("call %d: expected ErrEmbeddingUnavailable, got %v", i, err)
		}
	}

	if got := inits.Load(); got != 1 {
		t.Fatalf("expected failed init to be cached, got %d inits", got)
	}
}

func TestLazyEmbedder_EmptyTextSkipsInit(t *testing.T) {
	var inits atomic.Int32

	lazy := NewLazyEmbedder(1, func() (domain.Embedder, error) {
		inits.Add(1)
		return &stubEmbedder{vec: []float32{1}, dims: 1}, nil
	})

	_, err := lazy.Embed(context.Background(), "   ")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if inits.Load() != 0 {
		t.Fatal("empty input must not trigger initialization")
	}
}

func TestLazyEmbedder_HealthCheckDelegates(t *testing.T) {
	stub := &stubEmbedder{vec: []float32{1}, dims: 1}
	lazy := NewLazyEmbedder(1, func() (domain.Embedder, error) { return stub, nil })

	if err := lazy.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stub.hcDone {
		t.Fatal("expected inner health check to run")
	}
}

func TestDisabled_AlwaysUnavailable(t *testing.T) {
	d := NewDisabled()

	_, err := d.Embed(context.Background(), "anything")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if d.Dimensions() != 0 {
		t.Fatalf("expected zero dimensions, got %d", d.Dimensions())
	}
}
