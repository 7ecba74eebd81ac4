package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)
	fail := func() error { return errors.New("fail") }

	for i := 0; i < 3; i++ {
		_ = cb.Call(fail)
	}
	if cb.GetState() != StateOpen {
		t.Errorf("Expected open state after 3 failures, got %v", cb.GetState())
	}

	// While open, calls fail fast
	err := cb.Call(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_ClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)

	// Successes keep the failure count at zero
	for i := 0; i < 2; i++ {
		_ = cb.Call(func() error { return errors.New("fail") })
	}
	_ = cb.Call(func() error { return nil })
	for i := 0; i < 2; i++ {
		_ = cb.Call(func() error { return errors.New("fail") })
	}

	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed state, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)

	_ = cb.Call(func() error { return errors.New("fail") })
	if cb.GetState() != StateOpen {
		t.Fatalf("Expected open state, got %v", cb.GetState())
	}

	time.Sleep(20 * time.Millisecond)

	// Three successful probes close the circuit
	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("Probe %d rejected: %v", i, err)
		}
	}
	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed state after recovery, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)

	_ = cb.Call(func() error { return errors.New("fail") })
	time.Sleep(20 * time.Millisecond)

	_ = cb.Call(func() error { return errors.New("still failing") })
	if cb.GetState() != StateOpen {
		t.Errorf("Expected reopened circuit, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)
	_ = cb.Call(func() error { return errors.New("fail") })
	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed state after reset, got %v", cb.GetState())
	}
}

func TestCircuitBreaker_Stats(t *testing.T) {
	cb := NewCircuitBreaker("test", 5, time.Minute)
	_ = cb.Call(func() error { return nil })
	_ = cb.Call(func() error { return errors.New("fail") })

	_, requests, failures := cb.GetStats()
	if requests != 2 {
		t.Errorf("Expected 2 requests, got %d", requests)
	}
	if failures != 1 {
		t.Errorf("Expected 1 failure, got %d", failures)
	}
}
