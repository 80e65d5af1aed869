package chronographer

import "fmt"

// TaskFrame is a single composable unit of a task's execution tree. A
// task's root frame may wrap other frames (Retry, Timeout, Fallback,
// Group, ...) around a leaf ExecutionFrame, building up resilience and
// coordination behavior without the leaf knowing about any of it.
type TaskFrame interface {
	// Run executes the frame against ctx. Implementations that wrap an
	// inner frame must call ctx.subdivide before running it, so depth and
	// hook scoping stay accurate.
	Run(ctx *TaskContext) error
}

// ExecutionFunc is the user-supplied unit of work at the leaf of a frame
// tree.
type ExecutionFunc func(ctx *TaskContext) error

// ExecutionFrame is the leaf frame: it runs fn directly with no wrapping
// behavior.
type ExecutionFrame struct {
	fn ExecutionFunc
}

func NewExecutionFrame(fn ExecutionFunc) ExecutionFrame {
	return ExecutionFrame{fn: fn}
}

func (f ExecutionFrame) Run(ctx *TaskContext) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx)
}

// NoOpFrame runs nothing and always succeeds. Useful as a placeholder
// branch in a FallbackFrame or ConditionalFrame.
type NoOpFrame struct{}

func (NoOpFrame) Run(*TaskContext) error { return nil }

// DynamicResolver resolves the frame to run at execution time, rather
// than at tree-construction time — e.g. a frame whose shape depends on a
// value only known once the task is running.
type DynamicResolver func(ctx *TaskContext) (TaskFrame, error)

// DynamicFrame defers picking its wrapped frame until Run is called.
type DynamicFrame struct {
	resolve DynamicResolver
}

func NewDynamicFrame(resolve DynamicResolver) DynamicFrame {
	return DynamicFrame{resolve: resolve}
}

func (f DynamicFrame) Run(ctx *TaskContext) error {
	resolved, err := f.resolve(ctx)
	if err != nil {
		return newFrameError("dynamic", err)
	}
	child := ctx.subdivide(resolved)
	return resolved.Run(child)
}

// AssertPredicate reports whether an invariant holds given the current
// TaskContext.
type AssertPredicate func(ctx *TaskContext) bool

// AssertFrame fails the run with ErrTaskConditionFail when predicate
// returns false, otherwise runs inner.
type AssertFrame struct {
	predicate AssertPredicate
	message   string
	inner     TaskFrame
}

func NewAssertFrame(predicate AssertPredicate, message string, inner TaskFrame) AssertFrame {
	return AssertFrame{predicate: predicate, message: message, inner: inner}
}

func (f AssertFrame) Run(ctx *TaskContext) error {
	if !f.predicate(ctx) {
		msg := f.message
		if msg == "" {
			msg = "assertion failed"
		}
		return newFrameError("assert", fmt.Errorf("%s: %w", msg, ErrTaskConditionFail))
	}
	child := ctx.subdivide(f.inner)
	return f.inner.Run(child)
}
