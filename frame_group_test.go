package chronographer

import (
	"errors"
	"testing"
)

func TestSequentialGroupQuitOnFailureStopsEarly(t *testing.T) {
	ran := []int{}
	mk := func(i int, fail bool) TaskFrame {
		return NewExecutionFrame(func(*TaskContext) error {
			ran = append(ran, i)
			if fail {
				return errors.New("boom")
			}
			return nil
		})
	}
	frame := NewSequentialGroupFrame(GroupQuitOnFailure, mk(0, false), mk(1, true), mk(2, false))
	err := frame.Run(newTestContext())
	if err == nil {
		t.Fatal("expected error from failing child")
	}
	if len(ran) != 2 {
		t.Fatalf("expected the group to stop after the failing child, ran %v", ran)
	}
}

func TestSequentialGroupSilentRunsEveryChild(t *testing.T) {
	ran := []int{}
	mk := func(i int, fail bool) TaskFrame {
		return NewExecutionFrame(func(*TaskContext) error {
			ran = append(ran, i)
			if fail {
				return errors.New("boom")
			}
			return nil
		})
	}
	frame := NewSequentialGroupFrame(GroupSilent, mk(0, false), mk(1, true), mk(2, false))
	_ = frame.Run(newTestContext())
	if len(ran) != 3 {
		t.Fatalf("expected every child to run under GroupSilent, ran %v", ran)
	}
}

func TestSequentialGroupQuitOnSuccessStopsAtFirstSuccess(t *testing.T) {
	ran := []int{}
	mk := func(i int, fail bool) TaskFrame {
		return NewExecutionFrame(func(*TaskContext) error {
			ran = append(ran, i)
			if fail {
				return errors.New("boom")
			}
			return nil
		})
	}
	frame := NewSequentialGroupFrame(GroupQuitOnSuccess, mk(0, true), mk(1, false), mk(2, false))
	if err := frame.Run(newTestContext()); err != nil {
		t.Fatalf("expected success once a child succeeds, got %v", err)
	}
	if len(ran) != 2 {
		t.Fatalf("expected the group to stop at the first success, ran %v", ran)
	}
}

func TestParallelGroupQuitOnFailureReturnsError(t *testing.T) {
	mk := func(fail bool) TaskFrame {
		return NewExecutionFrame(func(*TaskContext) error {
			if fail {
				return errors.New("boom")
			}
			return nil
		})
	}
	frame := NewParallelGroupFrame(GroupQuitOnFailure, mk(false), mk(true), mk(false))
	if err := frame.Run(newTestContext()); err == nil {
		t.Fatal("expected an error when any child fails under QuitOnFailure")
	}
}

func TestParallelGroupSilentSucceedsWhenAllChildrenSucceed(t *testing.T) {
	mk := func() TaskFrame {
		return NewExecutionFrame(func(*TaskContext) error { return nil })
	}
	frame := NewParallelGroupFrame(GroupSilent, mk(), mk(), mk())
	if err := frame.Run(newTestContext()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestParallelGroupQuitOnSuccessSucceedsWithAnySuccess(t *testing.T) {
	mk := func(fail bool) TaskFrame {
		return NewExecutionFrame(func(*TaskContext) error {
			if fail {
				return errors.New("boom")
			}
			return nil
		})
	}
	frame := NewParallelGroupFrame(GroupQuitOnSuccess, mk(true), mk(false), mk(true))
	if err := frame.Run(newTestContext()); err != nil {
		t.Fatalf("expected success since one child succeeded, got %v", err)
	}
}

func TestSequentialGroupEmitsChildStartAndEndHooks(t *testing.T) {
	ctx := newTestContext()
	var starts, ends []int
	ctx.hooks.Attach(HookOnChildTaskFrameStart, HookFunc(func(_ *TaskContext, payload any) {
		starts = append(starts, payload.(int))
	}))
	ctx.hooks.Attach(HookOnChildTaskFrameEnd, HookFunc(func(_ *TaskContext, payload any) {
		ends = append(ends, payload.(ChildTaskFrameEvent).Index)
	}))

	mk := func() TaskFrame { return NewExecutionFrame(func(*TaskContext) error { return nil }) }
	frame := NewSequentialGroupFrame(GroupSilent, mk(), mk(), mk())
	if err := frame.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(starts) != 3 || len(ends) != 3 {
		t.Fatalf("expected 3 start and 3 end events, got starts=%v ends=%v", starts, ends)
	}
}

func TestParallelGroupQuitOnFailureReturnsWithoutAwaitingEveryChild(t *testing.T) {
	blocked := make(chan struct{})
	fast := NewExecutionFrame(func(*TaskContext) error { return errors.New("boom") })
	slow := NewExecutionFrame(func(ctx *TaskContext) error {
		select {
		case <-blocked:
		case <-ctx.Done():
		}
		return nil
	})
	defer close(blocked)

	frame := NewParallelGroupFrame(GroupQuitOnFailure, fast, slow)
	if err := frame.Run(newTestContext()); err == nil {
		t.Fatal("expected an error from the failing child")
	}
}
