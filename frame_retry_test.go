package chronographer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestContext() *TaskContext {
	return NewTaskContext(context.Background(), TaskIdentifier{}, 0, "test", Unlimited, 0, NewHookContainer())
}

func TestRetryFrameSucceedsAfterFailures(t *testing.T) {
	attempts := 0
	leaf := NewExecutionFrame(func(*TaskContext) error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	retry := NewRetryFrame(leaf, 5, ConstantBackoff{Delay: time.Millisecond}, nil)
	if err := retry.Run(newTestContext()); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryFrameExhaustsAttempts(t *testing.T) {
	attempts := 0
	leaf := NewExecutionFrame(func(*TaskContext) error {
		attempts++
		return errors.New("always fails")
	})

	retry := NewRetryFrame(leaf, 2, ConstantBackoff{Delay: time.Millisecond}, nil)
	err := retry.Run(newTestContext())
	if err == nil {
		t.Fatal("expected failure after exhausting attempts")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts (1 initial + 2 retries), got %d", attempts)
	}
}

func TestRetryFrameEmitsRetryAttemptHooks(t *testing.T) {
	ctx := newTestContext()
	starts, ends := 0, 0
	var lastEndErr error
	ctx.hooks.Attach(HookOnRetryAttemptStart, HookFunc(func(*TaskContext, any) { starts++ }))
	ctx.hooks.Attach(HookOnRetryAttemptEnd, HookFunc(func(_ *TaskContext, payload any) {
		ends++
		lastEndErr = payload.(RetryAttemptPayload).Err
	}))

	attempts := 0
	leaf := NewExecutionFrame(func(*TaskContext) error {
		attempts++
		if attempts < 2 {
			return errors.New("fail once")
		}
		return nil
	})
	retry := NewRetryFrame(leaf, 3, ConstantBackoff{Delay: time.Millisecond}, nil)
	if err := retry.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if starts != 2 || ends != 2 {
		t.Fatalf("expected 2 start/end hook emissions (one per attempt), got starts=%d ends=%d", starts, ends)
	}
	if lastEndErr != nil {
		t.Fatalf("expected the final attempt's end payload to carry a nil error, got %v", lastEndErr)
	}
}

func TestRetryFrameFilterStopsRetryingVetoedError(t *testing.T) {
	sentinel := errors.New("do not retry")
	attempts := 0
	leaf := NewExecutionFrame(func(*TaskContext) error {
		attempts++
		return sentinel
	})
	filter := func(err error) bool { return !errors.Is(err, sentinel) }
	retry := NewRetryFrame(leaf, 5, ConstantBackoff{Delay: time.Millisecond}, filter)
	err := retry.Run(newTestContext())
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the vetoed error to surface, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("filter should stop retries after the first attempt, got %d attempts", attempts)
	}
}

func TestExponentialBackoffDoublesAndCaps(t *testing.T) {
	b := ExponentialBackoff{Base: 100 * time.Millisecond, Max: 500 * time.Millisecond}
	if got := b.Compute(1); got != 100*time.Millisecond {
		t.Fatalf("attempt 1: got %v", got)
	}
	if got := b.Compute(2); got != 200*time.Millisecond {
		t.Fatalf("attempt 2: got %v", got)
	}
	if got := b.Compute(4); got != 500*time.Millisecond {
		t.Fatalf("attempt 4 should be capped at 500ms, got %v", got)
	}
}

func TestJitterBackoffNeverExceedsInner(t *testing.T) {
	inner := ConstantBackoff{Delay: 100 * time.Millisecond}
	jittered := JitterBackoff{Inner: inner, Mode: FullJitter}
	for i := 0; i < 50; i++ {
		got := jittered.Compute(1)
		if got < 0 || got > 100*time.Millisecond {
			t.Fatalf("full jitter out of range: %v", got)
		}
	}
}

func TestJitterBackoffEqualJitterHasFloor(t *testing.T) {
	inner := ConstantBackoff{Delay: 100 * time.Millisecond}
	jittered := JitterBackoff{Inner: inner, Mode: EqualJitter}
	for i := 0; i < 50; i++ {
		got := jittered.Compute(1)
		if got < 50*time.Millisecond || got > 100*time.Millisecond {
			t.Fatalf("equal jitter out of range: %v", got)
		}
	}
}
