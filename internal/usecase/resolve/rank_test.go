package resolve

import (
	"testing"

	"github.com/audiencelab/segmatch/internal/domain"
)

func TestRank_SortsDescending(t *testing.T) {
	in := []domain.CandidateMatch{
		{SegmentID: "c", Score: 0.3},
		{SegmentID: "a", Score: 0.9},
		{SegmentID: "b", Score: 0.6},
	}

	out := rank(in, 5)

	want := []string{"a", "b", "c"}
	for i, id := range want {
		if out[i].SegmentID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, out[i].SegmentID)
		}
	}
}

func TestRank_Truncates(t *testing.T) {
	in := []domain.CandidateMatch{
		{SegmentID: "a", Score: 0.9},
		{SegmentID: "b", Score: 0.6},
		{SegmentID: "c", Score: 0.3},
	}

	out := rank(in, 2)
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out))
	}
	if out[1].SegmentID != "b" {
		t.Fatalf("expected second candidate b, got %s", out[1].SegmentID)
	}
}

func TestRank_StableOnTies(t *testing.T) {
	in := []domain.CandidateMatch{
		{SegmentID: "first", Score: 0.5},
		{SegmentID: "second", Score: 0.5},
	}

	out := rank(in, 5)
	if out[0].SegmentID != "first" || out[1].SegmentID != "second" {
		t.Fatalf("tie order not preserved: %+v", out)
	}
}
