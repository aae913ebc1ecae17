package embedding

import (
	"context"
	"fmt"

	"github.com/audiencelab/segmatch/internal/domain"
)

// Disabled is the embedder for keyword-only deployments: every call fails
// with ErrEmbeddingUnavailable so the resolver surfaces the miss instead of
// degrading to meaningless vector results.
type Disabled struct{}

// NewDisabled creates the keyword-only embedder.
func NewDisabled() *Disabled { return &Disabled{} }

// Dimensions returns zero; there is no vector space.
func (*Disabled) Dimensions() int { return 0 }

// Embed always fails.
func (*Disabled) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"embedding disabled in this deployment: %w", domain.ErrEmbeddingUnavailable,
	)
}
