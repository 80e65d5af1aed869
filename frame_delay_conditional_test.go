package chronographer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelayFrameRunsInnerAfterDuration(t *testing.T) {
	ran := false
	inner := NewExecutionFrame(func(*TaskContext) error { ran = true; return nil })
	frame := NewDelayFrame(inner, 5*time.Millisecond)

	start := time.Now()
	if err := frame.Run(newTestContext()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("expected inner frame to run")
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Fatal("expected the frame to wait for the configured duration")
	}
}

func TestDelayFrameCancelledWhileWaitingReturnsContextError(t *testing.T) {
	goCtx, cancel := context.WithCancel(context.Background())
	ctx := NewTaskContext(goCtx, TaskIdentifier{}, 0, "test", Unlimited, 0, NewHookContainer())
	cancel()

	ran := false
	inner := NewExecutionFrame(func(*TaskContext) error { ran = true; return nil })
	frame := NewDelayFrame(inner, time.Hour)

	err := frame.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ran {
		t.Fatal("expected inner frame not to run once context was cancelled")
	}
}

func TestConditionalFrameTakesTrueBranch(t *testing.T) {
	var branch string
	trueFrame := NewExecutionFrame(func(*TaskContext) error { branch = "true"; return nil })
	falseFrame := NewExecutionFrame(func(*TaskContext) error { branch = "false"; return nil })

	frame := NewConditionalFrame(func(*TaskContext) bool { return true }, trueFrame, falseFrame, false)
	if err := frame.Run(newTestContext()); err != nil {
		t.Fatal(err)
	}
	if branch != "true" {
		t.Fatalf("expected true branch to run, got %q", branch)
	}
}

func TestConditionalFrameTakesFalseBranch(t *testing.T) {
	var branch string
	trueFrame := NewExecutionFrame(func(*TaskContext) error { branch = "true"; return nil })
	falseFrame := NewExecutionFrame(func(*TaskContext) error { branch = "false"; return nil })

	frame := NewConditionalFrame(func(*TaskContext) bool { return false }, trueFrame, falseFrame, false)
	if err := frame.Run(newTestContext()); err != nil {
		t.Fatal(err)
	}
	if branch != "false" {
		t.Fatalf("expected false branch to run, got %q", branch)
	}
}

func TestConditionalFrameDefaultsFalseBranchToNoOp(t *testing.T) {
	frame := NewConditionalFrame(func(*TaskContext) bool { return false }, NoOpFrame{}, nil, false)
	if err := frame.Run(newTestContext()); err != nil {
		t.Fatalf("expected NoOpFrame default to succeed, got %v", err)
	}
}

func TestConditionalFrameEmitsTruthyAndFalseyHooks(t *testing.T) {
	ctx := newTestContext()
	var truthy, falsey int
	ctx.hooks.Attach(HookOnTruthyValue, HookFunc(func(*TaskContext, any) { truthy++ }))
	ctx.hooks.Attach(HookOnFalseyValue, HookFunc(func(*TaskContext, any) { falsey++ }))

	frame := NewConditionalFrame(func(*TaskContext) bool { return true }, NoOpFrame{}, NoOpFrame{}, false)
	if err := frame.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if truthy != 1 || falsey != 0 {
		t.Fatalf("expected 1 truthy, 0 falsey, got truthy=%d falsey=%d", truthy, falsey)
	}

	frame = NewConditionalFrame(func(*TaskContext) bool { return false }, NoOpFrame{}, NoOpFrame{}, false)
	if err := frame.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if truthy != 1 || falsey != 1 {
		t.Fatalf("expected 1 truthy, 1 falsey, got truthy=%d falsey=%d", truthy, falsey)
	}
}

func TestConditionalFrameErrorOnFalseFailsWhenFalseBranchSucceeds(t *testing.T) {
	frame := NewConditionalFrame(func(*TaskContext) bool { return false }, NoOpFrame{}, NoOpFrame{}, true)
	err := frame.Run(newTestContext())
	if !errors.Is(err, ErrTaskConditionFail) {
		t.Fatalf("expected ErrTaskConditionFail, got %v", err)
	}
}

func TestConditionalFrameErrorOnFalseDoesNotMaskFalseBranchError(t *testing.T) {
	sentinel := errors.New("false branch blew up")
	whenFalse := NewExecutionFrame(func(*TaskContext) error { return sentinel })
	frame := NewConditionalFrame(func(*TaskContext) bool { return false }, NoOpFrame{}, whenFalse, true)
	err := frame.Run(newTestContext())
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected the false branch's own error to surface, got %v", err)
	}
}
