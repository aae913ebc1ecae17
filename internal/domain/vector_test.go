package domain

import (
	"math"
	"testing"
)

const tolerance = 1e-6

func l2(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestNormalize_UnitLength(t *testing.T) {
	v := []float32{3, 4}
	n := Normalize(v)

	if got := l2(n); math.Abs(got-1.0) > tolerance {
		t.Fatalf("expected unit norm, got %v", got)
	}
	if n[0] != 0.6 || n[1] != 0.8 {
		t.Fatalf("unexpected components: %v", n)
	}
}

func TestNormalize_ZeroVectorUnchanged(t *testing.T) {
	v := []float32{0, 0, 0}
	n := Normalize(v)

	for i, x := range n {
		if x != 0 {
			t.Fatalf("component %d changed: %v", i, x)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.001}

	once := Normalize(v)
	twice := Normalize(once)

	for i := range once {
		if math.Abs(float64(once[i])-float64(twice[i])) > tolerance {
			t.Fatalf("component %d differs: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	v := []float32{3, 4}
	_ = Normalize(v)

	if v[0] != 3 || v[1] != 4 {
		t.Fatalf("input mutated: %v", v)
	}
}
