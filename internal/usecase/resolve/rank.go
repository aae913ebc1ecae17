package resolve

import (
	"sort"

	"github.com/audiencelab/segmatch/internal/domain"
)

// rank orders candidates by score descending and truncates to topK.
// The sort is stable so equal-score candidates keep backend order.
func rank(candidates []domain.CandidateMatch, topK int) []domain.CandidateMatch {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}
