package chronographer

import (
	"errors"
	"sync/atomic"
)

// Dependency is a gate a DependencyFrame checks before running its inner
// frame. Every variant shares the same enable/disable arming contract; a
// disabled dependency always reports resolved, regardless of its own
// state, until re-enabled.
type Dependency interface {
	// IsResolved reports whether the gate currently holds.
	IsResolved(ctx *TaskContext) (bool, error)
	// IsEnabled reports whether this dependency currently participates in
	// gating.
	IsEnabled() bool
	// Enable arms the dependency so it participates in gating again.
	Enable()
	// Disable disarms the dependency: IsResolved reports true without
	// consulting its own state until re-enabled.
	Disable()
}

// ResolvableDependency is the optional extension FlagDependency supports:
// direct manual control over the resolved state, rather than it being
// derived the way Logical/Dynamic/Task dependencies are.
type ResolvableDependency interface {
	Dependency
	Resolve()
	Unresolve()
}

// baseDependency implements the enable/disable bookkeeping every
// Dependency variant shares. The flag lives behind a pointer so embedding
// baseDependency by value — as the value-typed Logical/Dynamic/Task
// dependencies do — never copies a live atomic.Bool.
type baseDependency struct {
	enabled *atomic.Bool
}

func newBaseDependency() baseDependency {
	b := baseDependency{enabled: &atomic.Bool{}}
	b.enabled.Store(true)
	return b
}

func (b baseDependency) IsEnabled() bool { return b.enabled.Load() }
func (b baseDependency) Enable()         { b.enabled.Store(true) }
func (b baseDependency) Disable()        { b.enabled.Store(false) }

// FlagDependency gates on two atomic bools: whether it is enabled, and
// whether it is currently resolved. Resolve/Unresolve implement the
// ResolvableDependency extension for direct manual control, e.g. a
// feature flag or a manually-armed switch.
type FlagDependency struct {
	baseDependency
	resolved atomic.Bool
}

func NewFlagDependency(initial bool) *FlagDependency {
	d := &FlagDependency{baseDependency: newBaseDependency()}
	d.resolved.Store(initial)
	return d
}

func (d *FlagDependency) IsResolved(*TaskContext) (bool, error) {
	if !d.IsEnabled() {
		return true, nil
	}
	return d.resolved.Load(), nil
}

// Resolve flips the flag to resolved.
func (d *FlagDependency) Resolve() { d.resolved.Store(true) }

// Unresolve flips the flag to unresolved.
func (d *FlagDependency) Unresolve() { d.resolved.Store(false) }

// LogicalOp combines two or more Dependencies.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
	LogicalXor
	// LogicalNot negates its single child; see NewNotDependency for a
	// dedicated constructor rather than calling NewLogicalDependency
	// directly with one child.
	LogicalNot
)

// LogicalDependency combines child dependencies with And/Or/Xor/Not. It
// does not short-circuit evaluation order — all children are queried so
// that hook emissions stay deterministic regardless of Go map/slice
// order.
type LogicalDependency struct {
	baseDependency
	op       LogicalOp
	children []Dependency
}

func NewLogicalDependency(op LogicalOp, children ...Dependency) LogicalDependency {
	return LogicalDependency{baseDependency: newBaseDependency(), op: op, children: children}
}

// NewNotDependency negates child, the LogicalNot variant of LogicalDependency.
func NewNotDependency(child Dependency) LogicalDependency {
	return NewLogicalDependency(LogicalNot, child)
}

func (d LogicalDependency) IsResolved(ctx *TaskContext) (bool, error) {
	if !d.IsEnabled() {
		return true, nil
	}
	if d.op == LogicalNot {
		if len(d.children) != 1 {
			return false, errors.New("chronographer: LogicalNot dependency requires exactly one child")
		}
		ok, err := d.children[0].IsResolved(ctx)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
	if len(d.children) == 0 {
		return true, nil
	}

	trueCount := 0
	for _, c := range d.children {
		ok, err := c.IsResolved(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			trueCount++
		}
	}
	switch d.op {
	case LogicalAnd:
		return trueCount == len(d.children), nil
	case LogicalOr:
		return trueCount > 0, nil
	case LogicalXor:
		return trueCount%2 == 1, nil
	default:
		return false, nil
	}
}

// DynamicDependencyFunc computes a dependency's state at evaluation time.
type DynamicDependencyFunc func(ctx *TaskContext) (bool, error)

// DynamicDependency wraps an arbitrary predicate as a Dependency.
type DynamicDependency struct {
	baseDependency
	fn DynamicDependencyFunc
}

func NewDynamicDependency(fn DynamicDependencyFunc) DynamicDependency {
	return DynamicDependency{baseDependency: newBaseDependency(), fn: fn}
}

func (d DynamicDependency) IsResolved(ctx *TaskContext) (bool, error) {
	if !d.IsEnabled() {
		return true, nil
	}
	return d.fn(ctx)
}

// TaskResolvePolicy selects how a TaskDependency aggregates the
// completion states of the tasks it observes.
type TaskResolvePolicy int

const (
	// OnFirstSuccess resolves true as soon as any observed task has
	// completed successfully at least once.
	OnFirstSuccess TaskResolvePolicy = iota
	// OnAllOf resolves true only once every observed task has completed
	// successfully at least once.
	OnAllOf
	// OnNthCompletion resolves true once at least N of the observed tasks
	// (by distinct identifier) have completed successfully.
	OnNthCompletion
)

// TaskObserver reports whether a given task has completed successfully,
// backed by the engine's run-state tracking.
type TaskObserver interface {
	HasSucceeded(id TaskIdentifier) bool
}

// TaskDependency gates on the completion state of other tasks, tracked
// through a TaskObserver (normally the owning Engine) rather than owning
// the observed tasks directly.
type TaskDependency struct {
	baseDependency
	observer TaskObserver
	targets  []TaskIdentifier
	policy   TaskResolvePolicy
	n        int
}

// NewTaskDependency builds a TaskDependency. n is only meaningful for
// OnNthCompletion.
func NewTaskDependency(observer TaskObserver, policy TaskResolvePolicy, n int, targets ...TaskIdentifier) TaskDependency {
	return TaskDependency{baseDependency: newBaseDependency(), observer: observer, targets: targets, policy: policy, n: n}
}

func (d TaskDependency) IsResolved(*TaskContext) (bool, error) {
	if !d.IsEnabled() {
		return true, nil
	}
	if len(d.targets) == 0 {
		return true, nil
	}
	succeeded := 0
	for _, id := range d.targets {
		if d.observer.HasSucceeded(id) {
			succeeded++
		}
	}
	switch d.policy {
	case OnFirstSuccess:
		return succeeded >= 1, nil
	case OnAllOf:
		return succeeded == len(d.targets), nil
	case OnNthCompletion:
		return succeeded >= d.n, nil
	default:
		return false, nil
	}
}
