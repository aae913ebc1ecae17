package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct{ err error }

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{}, &mockPinger{})

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Fatalf("expected healthy, got %s", report.Status)
	}
	for name, result := range report.Checks {
		if result != CheckOK {
			t.Errorf("check %s: expected ok, got %s", name, result)
		}
	}
	if len(report.Checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(report.Checks))
	}
}

func TestCheck_EmbeddingDown(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{err: errors.New("api down")}, nil)

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
	if report.Checks["embedding"] != CheckError {
		t.Fatalf("expected embedding error, got %s", report.Checks["embedding"])
	}
	if report.Checks["index"] != CheckOK {
		t.Fatalf("expected index ok, got %s", report.Checks["index"])
	}
}

func TestCheck_IndexDown(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("unreachable")}, nil, nil)

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Fatalf("expected degraded, got %s", report.Status)
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Fatal("nil embedding checker must not be reported")
	}
	if _, ok := report.Checks["cache"]; ok {
		t.Fatal("nil cache pinger must not be reported")
	}
}
