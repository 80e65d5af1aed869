package chronographer

import (
	"errors"
	"fmt"
)

// ScheduleError reports a failure computing a schedule's next due time:
// a cron parse failure, an out-of-range calendar interval, or similar.
type ScheduleError struct {
	Op  string
	Err error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("chronographer: schedule %s: %v", e.Op, e.Err)
}

func (e *ScheduleError) Unwrap() error { return e.Err }

func newScheduleError(op string, err error) *ScheduleError {
	return &ScheduleError{Op: op, Err: err}
}

// StoreError reports a failure in the task store.
type StoreError struct {
	Op  string
	ID  TaskIdentifier
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("chronographer: store %s(%s): %v", e.Op, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ErrTaskIdentifierNonExistent is returned by store operations addressed
// at an id with no corresponding task.
var ErrTaskIdentifierNonExistent = errors.New("task identifier does not exist in the store")

// FrameError wraps the error produced while executing a TaskFrame node.
// Concrete sub-errors are distinguished via errors.Is/errors.As against
// the sentinels and typed errors below.
type FrameError struct {
	Frame string
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("chronographer: frame %s: %v", e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

func newFrameError(frame string, err error) error {
	if err == nil {
		return nil
	}
	return &FrameError{Frame: frame, Err: err}
}

var (
	// ErrTimeoutExceeded is returned by TimeoutFrame when the child did
	// not complete before the configured duration elapsed.
	ErrTimeoutExceeded = errors.New("task frame timed out")

	// ErrFallbackSecondaryFailed is returned by FallbackFrame when both
	// the primary and secondary branches failed.
	ErrFallbackSecondaryFailed = errors.New("fallback secondary frame also failed")

	// ErrTaskConditionFail is returned by ConditionalFrame when the
	// predicate was false, errorOnFalse was set, and the fallback branch
	// itself returned success (so there is no underlying error to surface).
	ErrTaskConditionFail = errors.New("task condition evaluated to false")

	// ErrDependenciesUnresolved is returned by DependencyFrame when at
	// least one dependency is unresolved and the configured policy is to
	// fail rather than silently skip.
	ErrDependenciesUnresolved = errors.New("one or more dependencies are unresolved")

	// ErrIndexOutOfBounds is returned by SelectFrame when the accessor
	// returns an index outside the children slice.
	ErrIndexOutOfBounds = errors.New("select index out of bounds")

	// ErrThresholdReached is returned by ThresholdFrame when the
	// counter has reached its configured limit and the reach policy is
	// configured to fail.
	ErrThresholdReached = errors.New("threshold reached")
)

// CollectionChildFailed wraps the error of one failed child inside a
// sequential or parallel group node, along with its index.
type CollectionChildFailed struct {
	Index int
	Err   error
}

func (e *CollectionChildFailed) Error() string {
	return fmt.Sprintf("child %d failed: %v", e.Index, e.Err)
}

func (e *CollectionChildFailed) Unwrap() error { return e.Err }
