package resilience_test

import (
	"errors"
	"testing"
	"time"

	"github.com/doronpers/sonotheia/internal/resilience"
)

var errBackend = errors.New("backend down")

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()
	cb := resilience.New(resilience.Config{Name: "test", MaxFailures: 3, ResetTimeout: time.Hour})

	for i := range 3 {
		if err := cb.Execute(func() error { return errBackend }); !errors.Is(err, errBackend) {
			t.Fatalf("call %d: expected backend error, got %v", i, err)
		}
	}
	if cb.State() != resilience.StateOpen {
		t.Fatalf("state = %v; want open", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("open breaker must not invoke the function")
	}
}

func TestCircuitBreaker_SuccessResetsCounter(t *testing.T) {
	t.Parallel()
	cb := resilience.New(resilience.Config{MaxFailures: 2, ResetTimeout: time.Hour})
	cb.Execute(func() error { return errBackend })
	cb.Execute(func() error { return nil })
	cb.Execute(func() error { return errBackend })
	if cb.State() != resilience.StateClosed {
		t.Errorf("state = %v; want closed (success resets the failure streak)", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	t.Parallel()
	cb := resilience.New(resilience.Config{MaxFailures: 1, ResetTimeout: time.Millisecond, HalfOpenMax: 2})
	cb.Execute(func() error { return errBackend })
	if cb.State() != resilience.StateOpen {
		t.Fatalf("state = %v; want open", cb.State())
	}

	time.Sleep(5 * time.Millisecond)
	for range 2 {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("probe call failed: %v", err)
		}
	}
	if cb.State() != resilience.StateClosed {
		t.Errorf("state = %v; want closed after successful probes", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()
	cb := resilience.New(resilience.Config{MaxFailures: 1, ResetTimeout: time.Millisecond, HalfOpenMax: 2})
	cb.Execute(func() error { return errBackend })
	time.Sleep(5 * time.Millisecond)
	cb.Execute(func() error { return errBackend })
	if cb.State() != resilience.StateOpen {
		t.Errorf("state = %v; want re-opened after failed probe", cb.State())
	}
}
