package chronographer

import "sync/atomic"

// Unlimited signals a Task has no bound on how many times it may run.
const Unlimited = 0

// Task is a schedulable unit: a frame tree to execute, a schedule that
// decides when it is next due, a policy governing what happens when a
// run is still in flight when the next one becomes due, and a hook
// registry observers can attach to.
type Task struct {
	id         TaskIdentifier
	frame      TaskFrame
	schedule   Schedule
	policy     SchedulingPolicy
	hooks      *HookContainer
	priority   int
	debugLabel string
	maxRuns    int

	runsSoFar atomic.Int64
	succeeded atomic.Bool
}

// TaskOption configures a Task at construction time.
type TaskOption func(*Task)

// WithPriority sets the task's priority, used by heap-ordered TaskStores
// to break ties between tasks due at the same instant. Higher runs first.
func WithPriority(priority int) TaskOption {
	return func(t *Task) { t.priority = priority }
}

// WithDebugLabel attaches a human-readable label, exposed to frames and
// hooks through TaskContext.DebugLabel and stored in persisted records.
func WithDebugLabel(label string) TaskOption {
	return func(t *Task) { t.debugLabel = label }
}

// WithMaxRuns bounds how many times the task may run before the engine
// retires it. Unlimited (0) means no bound.
func WithMaxRuns(maxRuns int) TaskOption {
	return func(t *Task) { t.maxRuns = maxRuns }
}

// WithHooks attaches a pre-built HookContainer instead of the empty one
// NewTask creates by default, letting callers share a registry across
// tasks or pre-populate hooks before the task is scheduled.
func WithHooks(hooks *HookContainer) TaskOption {
	return func(t *Task) { t.hooks = hooks }
}

// NewTask builds a Task. policy defaults to SchedulingSequential when the
// zero value is passed.
func NewTask(id TaskIdentifier, frame TaskFrame, schedule Schedule, policy SchedulingPolicy, opts ...TaskOption) *Task {
	t := &Task{
		id:       id,
		frame:    frame,
		schedule: schedule,
		policy:   policy,
		hooks:    NewHookContainer(),
		maxRuns:  Unlimited,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Task) ID() TaskIdentifier      { return t.id }
func (t *Task) Frame() TaskFrame        { return t.frame }
func (t *Task) Schedule() Schedule      { return t.schedule }
func (t *Task) Policy() SchedulingPolicy { return t.policy }
func (t *Task) Hooks() *HookContainer   { return t.hooks }
func (t *Task) Priority() int           { return t.priority }
func (t *Task) DebugLabel() string      { return t.debugLabel }
func (t *Task) MaxRuns() int            { return t.maxRuns }
func (t *Task) RunsSoFar() int64        { return t.runsSoFar.Load() }

// Exhausted reports whether the task has reached its MaxRuns bound.
func (t *Task) Exhausted() bool {
	return t.maxRuns != Unlimited && t.runsSoFar.Load() >= int64(t.maxRuns)
}

// HasSucceeded reports whether this task has completed successfully at
// least once, satisfying the TaskObserver interface for TaskDependency.
func (t *Task) HasSucceeded(id TaskIdentifier) bool {
	if t.id != id {
		return false
	}
	return t.succeeded.Load()
}

// recordStart increments the run counter, called by the Engine the
// moment a run is dispatched, before the frame tree executes. MaxRuns
// accounting is based on runs started, not runs completed, so a run that
// is still in flight still counts against the bound.
func (t *Task) recordStart() {
	t.runsSoFar.Add(1)
}

// recordOutcome records whether a dispatched run succeeded, called by the
// Engine once the frame tree returns.
func (t *Task) recordOutcome(err error) {
	if err == nil {
		t.succeeded.Store(true)
	}
}
