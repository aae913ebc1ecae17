package domain

import (
	"errors"
	"testing"
)

func TestNewQuery_Defaults(t *testing.T) {
	q, err := NewQuery("start a business", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.TopK() != DefaultTopK {
		t.Fatalf("expected default top_k %d, got %d", DefaultTopK, q.TopK())
	}
	if q.Text() != "start a business" {
		t.Fatalf("unexpected text: %q", q.Text())
	}
}

func TestNewQuery_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		if _, err := NewQuery(text, 5); !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("text %q: expected ErrInvalidQuery, got %v", text, err)
		}
	}
}

func TestNewQuery_NegativeTopK(t *testing.T) {
	if _, err := NewQuery("fitness", -1); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}
