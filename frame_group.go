package chronographer

import (
	"context"
)

// GroupPolicy controls when a Group frame stops running further children.
type GroupPolicy int

const (
	// GroupSilent runs every child regardless of individual outcomes and
	// reports a CollectionChildFailed-wrapped error if any failed.
	GroupSilent GroupPolicy = iota
	// GroupQuitOnFailure stops at the first child failure.
	GroupQuitOnFailure
	// GroupQuitOnSuccess stops at the first child success.
	GroupQuitOnSuccess
)

// SequentialGroupFrame runs children one after another in order, subject
// to Policy.
type SequentialGroupFrame struct {
	children []TaskFrame
	policy   GroupPolicy
}

func NewSequentialGroupFrame(policy GroupPolicy, children ...TaskFrame) SequentialGroupFrame {
	return SequentialGroupFrame{children: children, policy: policy}
}

func (f SequentialGroupFrame) Run(ctx *TaskContext) error {
	var firstErr error
	anySucceeded := false
	for i, child := range f.children {
		ctx.emit(HookOnChildTaskFrameStart, i)
		cctx := ctx.subdivide(child)
		err := child.Run(cctx)
		ctx.emit(HookOnChildTaskFrameEnd, ChildTaskFrameEvent{Index: i, Err: err})
		if err != nil {
			if firstErr == nil {
				firstErr = &CollectionChildFailed{Index: i, Err: err}
			}
			if f.policy == GroupQuitOnFailure {
				return newFrameError("sequential-group", firstErr)
			}
			continue
		}
		anySucceeded = true
		if f.policy == GroupQuitOnSuccess {
			return nil
		}
	}
	if f.policy == GroupQuitOnSuccess && !anySucceeded {
		return newFrameError("sequential-group", firstErr)
	}
	if firstErr != nil && f.policy == GroupSilent {
		return newFrameError("sequential-group", firstErr)
	}
	return nil
}

// ParallelGroupFrame runs every child concurrently, subject to Policy.
// GroupQuitOnFailure and GroupQuitOnSuccess end the group as soon as the
// triggering result is observed — remaining in-flight children are
// cancelled and their outcomes discarded rather than awaited, since the
// results channel is sized to absorb every late send without blocking
// the abandoned goroutines. GroupSilent lets every child run to
// completion.
type ParallelGroupFrame struct {
	children []TaskFrame
	policy   GroupPolicy
}

func NewParallelGroupFrame(policy GroupPolicy, children ...TaskFrame) ParallelGroupFrame {
	return ParallelGroupFrame{children: children, policy: policy}
}

func (f ParallelGroupFrame) Run(ctx *TaskContext) error {
	if len(f.children) == 0 {
		return nil
	}

	goCtx, cancel := context.WithCancel(ctx.Context)
	defer cancel()

	type outcome struct {
		index int
		err   error
	}
	results := make(chan outcome, len(f.children))
	for i, child := range f.children {
		i, child := i, child
		cctx := ctx.subdivide(child).withGoContext(goCtx)
		ctx.emit(HookOnChildTaskFrameStart, i)
		go func() {
			results <- outcome{index: i, err: child.Run(cctx)}
		}()
	}

	var (
		firstErr     error
		anySucceeded bool
	)
	for received := 0; received < len(f.children); received++ {
		res := <-results
		ctx.emit(HookOnChildTaskFrameEnd, ChildTaskFrameEvent{Index: res.index, Err: res.err})
		if res.err != nil {
			if firstErr == nil {
				firstErr = &CollectionChildFailed{Index: res.index, Err: res.err}
			}
			if f.policy == GroupQuitOnFailure {
				cancel()
				return newFrameError("parallel-group", firstErr)
			}
			continue
		}
		anySucceeded = true
		if f.policy == GroupQuitOnSuccess {
			cancel()
			return nil
		}
	}

	switch f.policy {
	case GroupQuitOnSuccess:
		if !anySucceeded {
			return newFrameError("parallel-group", firstErr)
		}
	case GroupQuitOnFailure, GroupSilent:
		if firstErr != nil {
			return newFrameError("parallel-group", firstErr)
		}
	}
	return nil
}
