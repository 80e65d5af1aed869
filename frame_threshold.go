package chronographer

import "sync/atomic"

// ThresholdCountLogic decides whether a given run's outcome should count
// toward a ThresholdFrame's threshold.
type ThresholdCountLogic interface {
	Counts(err error, ctx *TaskContext) bool
}

type thresholdCountFunc func(err error, ctx *TaskContext) bool

func (f thresholdCountFunc) Counts(err error, ctx *TaskContext) bool { return f(err, ctx) }

// CountOnSuccess counts only runs that completed without error.
func CountOnSuccess() ThresholdCountLogic {
	return thresholdCountFunc(func(err error, _ *TaskContext) bool { return err == nil })
}

// CountOnFailure counts only runs that returned an error.
func CountOnFailure() ThresholdCountLogic {
	return thresholdCountFunc(func(err error, _ *TaskContext) bool { return err != nil })
}

// CountAlways counts every run regardless of outcome.
func CountAlways() ThresholdCountLogic {
	return thresholdCountFunc(func(error, *TaskContext) bool { return true })
}

// ThresholdReachPolicy selects what ThresholdFrame.Run returns once its
// counter has reached N, instead of running inner again.
type ThresholdReachPolicy int

const (
	// OnReachSucceed returns success once the threshold is reached.
	OnReachSucceed ThresholdReachPolicy = iota
	// OnReachFail returns ErrThresholdReached once the threshold is reached.
	OnReachFail
)

// ThresholdFrame wraps inner with a counter that survives across
// executions of this frame node (the same frame tree is reused every
// time its owning Task runs): once the counter reaches N, inner is no
// longer run at all and Reach alone decides the frame's return value.
// Before that point, inner runs normally and CountLogic decides whether
// this particular outcome advances the counter.
type ThresholdFrame struct {
	inner   TaskFrame
	n       int
	logic   ThresholdCountLogic
	reach   ThresholdReachPolicy
	counter atomic.Int64
}

// NewThresholdFrame builds a ThresholdFrame. A nil logic defaults to
// CountOnSuccess, matching "count successful completions toward N".
func NewThresholdFrame(inner TaskFrame, n int, logic ThresholdCountLogic, reach ThresholdReachPolicy) *ThresholdFrame {
	if logic == nil {
		logic = CountOnSuccess()
	}
	return &ThresholdFrame{inner: inner, n: n, logic: logic, reach: reach}
}

// Count reports the current value of the threshold counter.
func (f *ThresholdFrame) Count() int64 { return f.counter.Load() }

func (f *ThresholdFrame) Run(ctx *TaskContext) error {
	if f.counter.Load() >= int64(f.n) {
		ctx.emit(HookOnThresholdReached, f.counter.Load())
		if f.reach == OnReachFail {
			return newFrameError("threshold", ErrThresholdReached)
		}
		return nil
	}

	child := ctx.subdivide(f.inner)
	err := f.inner.Run(child)
	if f.logic.Counts(err, ctx) {
		f.counter.Add(1)
	}
	return err
}
