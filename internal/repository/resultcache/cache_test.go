package resultcache

import (
	"testing"
	"time"

	"github.com/audiencelab/segmatch/internal/domain"
)

func TestCache_HitAndMiss(t *testing.T) {
	c := New(8, time.Minute, nil)

	if _, ok := c.Get("coffee shops", 5); ok {
		t.Fatal("expected miss on empty cache")
	}

	want := []domain.CandidateMatch{
		{SegmentID: "seg_1", Topic: "Coffee Enthusiasts", Score: 0.92, Method: domain.MethodVectorSearch},
	}
	c.Put("coffee shops", 5, want)

	got, ok := c.Get("coffee shops", 5)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if len(got) != 1 || got[0].SegmentID != "seg_1" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}

func TestCache_TopKScopesKey(t *testing.T) {
	c := New(8, time.Minute, nil)
	c.Put("coffee shops", 5, []domain.CandidateMatch{{SegmentID: "seg_1"}})

	if _, ok := c.Get("coffee shops", 10); ok {
		t.Fatal("expected miss for different topK")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New(8, 20*time.Millisecond, nil)
	c.Put("coffee shops", 5, []domain.CandidateMatch{{SegmentID: "seg_1"}})

	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get("coffee shops", 5); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestCache_Eviction(t *testing.T) {
	c := New(2, time.Minute, nil)
	c.Put("a", 5, []domain.CandidateMatch{{SegmentID: "a"}})
	c.Put("b", 5, []domain.CandidateMatch{{SegmentID: "b"}})
	c.Put("c", 5, []domain.CandidateMatch{{SegmentID: "c"}})

	if c.Len() != 2 {
		t.Fatalf("expected 2 live entries, got %d", c.Len())
	}
	if _, ok := c.Get("a", 5); ok {
		t.Fatal("expected oldest entry to be evicted")
	}
}
