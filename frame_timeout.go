package chronographer

import (
	"context"
	"time"
)

// TimeoutFrame runs inner with a deadline. If inner does not return
// before Duration elapses, Run returns ErrTimeoutExceeded without waiting
// for inner to finish (inner's goroutine keeps running until it observes
// ctx.Done(), same as any context-aware work in Go).
type TimeoutFrame struct {
	inner    TaskFrame
	duration time.Duration
}

func NewTimeoutFrame(inner TaskFrame, duration time.Duration) TimeoutFrame {
	return TimeoutFrame{inner: inner, duration: duration}
}

func (f TimeoutFrame) Run(ctx *TaskContext) error {
	goCtx, cancel := context.WithTimeout(ctx.Context, f.duration)
	defer cancel()

	child := ctx.subdivide(f.inner).withGoContext(goCtx)

	done := make(chan error, 1)
	go func() {
		done <- f.inner.Run(child)
	}()

	select {
	case err := <-done:
		return err
	case <-goCtx.Done():
		ctx.emit(HookOnTimeout, f.duration)
		return newFrameError("timeout", ErrTimeoutExceeded)
	}
}
