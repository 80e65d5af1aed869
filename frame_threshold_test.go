package chronographer

import (
	"errors"
	"testing"
)

func TestThresholdFrameRunsChildBeforeReachingLimit(t *testing.T) {
	runs := 0
	child := NewExecutionFrame(func(*TaskContext) error { runs++; return nil })
	frame := NewThresholdFrame(child, 3, CountOnSuccess(), OnReachSucceed)

	for i := 0; i < 3; i++ {
		if err := frame.Run(newTestContext()); err != nil {
			t.Fatalf("run %d: unexpected error %v", i, err)
		}
	}
	if runs != 3 {
		t.Fatalf("expected child to run 3 times before threshold reached, got %d", runs)
	}
	if frame.Count() != 3 {
		t.Fatalf("expected counter at 3, got %d", frame.Count())
	}
}

func TestThresholdFrameStopsRunningChildOnceReached(t *testing.T) {
	runs := 0
	child := NewExecutionFrame(func(*TaskContext) error { runs++; return nil })
	frame := NewThresholdFrame(child, 2, CountOnSuccess(), OnReachSucceed)

	for i := 0; i < 5; i++ {
		if err := frame.Run(newTestContext()); err != nil {
			t.Fatalf("run %d: unexpected error %v", i, err)
		}
	}
	if runs != 2 {
		t.Fatalf("expected child to stop running once threshold reached, got %d runs", runs)
	}
}

func TestThresholdFrameOnReachFailReturnsError(t *testing.T) {
	child := NewExecutionFrame(func(*TaskContext) error { return nil })
	frame := NewThresholdFrame(child, 1, CountOnSuccess(), OnReachFail)

	if err := frame.Run(newTestContext()); err != nil {
		t.Fatalf("expected first run under threshold to succeed, got %v", err)
	}
	err := frame.Run(newTestContext())
	if !errors.Is(err, ErrThresholdReached) {
		t.Fatalf("expected ErrThresholdReached once threshold met, got %v", err)
	}
}

func TestThresholdFrameCountOnFailureIgnoresSuccesses(t *testing.T) {
	calls := 0
	child := NewExecutionFrame(func(*TaskContext) error {
		calls++
		if calls <= 2 {
			return nil
		}
		return errors.New("boom")
	})
	frame := NewThresholdFrame(child, 1, CountOnFailure(), OnReachSucceed)

	for i := 0; i < 2; i++ {
		if err := frame.Run(newTestContext()); err != nil {
			t.Fatalf("expected success runs to pass through, got %v", err)
		}
	}
	if frame.Count() != 0 {
		t.Fatalf("expected counter untouched by successes, got %d", frame.Count())
	}
	if err := frame.Run(newTestContext()); err == nil {
		t.Fatal("expected the failing run's own error to surface")
	}
	if frame.Count() != 1 {
		t.Fatalf("expected counter to advance on the counted failure, got %d", frame.Count())
	}
}
