package chronographer

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// dependencyNotReady is an internal sentinel threaded through errgroup so
// a false Dependency.IsResolved cancels the group's context (aborting
// sibling queries still in flight) without being reported as a real
// error to the caller.
type dependencyNotReady struct{}

func (dependencyNotReady) Error() string { return "dependency not ready" }

// DependencyUnresolvedPolicy selects what a DependencyFrame does when one
// of its gates is not resolved.
type DependencyUnresolvedPolicy int

const (
	// DependencyUnresolvedFail returns ErrDependenciesUnresolved without
	// running inner.
	DependencyUnresolvedFail DependencyUnresolvedPolicy = iota
	// DependencyUnresolvedSkip returns nil (Ok) without running inner.
	DependencyUnresolvedSkip
)

// DependencyFrame gates inner on every Dependency in Gates resolving
// true. Gates are queried concurrently via errgroup; the first false
// result cancels the group's derived context so remaining in-flight
// queries abort rather than run to completion. HookOnDependencyValidation
// fires once per gate that completed before that abort was observed,
// matching the original implementation's JoinSet-abort-on-first-false
// behavior: a gate whose query was already cancelled never gets its
// validation hook. OnUnresolved selects whether an unresolved gate is
// reported as an error or silently skips inner.
type DependencyFrame struct {
	gates        []Dependency
	inner        TaskFrame
	onUnresolved DependencyUnresolvedPolicy
}

func NewDependencyFrame(inner TaskFrame, onUnresolved DependencyUnresolvedPolicy, gates ...Dependency) DependencyFrame {
	return DependencyFrame{gates: gates, inner: inner, onUnresolved: onUnresolved}
}

func (f DependencyFrame) Run(ctx *TaskContext) error {
	if len(f.gates) == 0 {
		child := ctx.subdivide(f.inner)
		return f.inner.Run(child)
	}

	g, goCtx := errgroup.WithContext(ctx.Context)
	gctx := ctx.withGoContext(goCtx)
	var aborted atomic.Bool

	for _, gate := range f.gates {
		gate := gate
		g.Go(func() error {
			ok, err := gate.IsResolved(gctx)
			if err != nil {
				return newFrameError("dependency", err)
			}
			if !aborted.Load() {
				ctx.emit(HookOnDependencyValidation, ok)
			}
			if !ok {
				aborted.Store(true)
				return dependencyNotReady{}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if _, isNotReady := err.(dependencyNotReady); isNotReady {
			if f.onUnresolved == DependencyUnresolvedSkip {
				return nil
			}
			return newFrameError("dependency", ErrDependenciesUnresolved)
		}
		return err
	}

	child := ctx.subdivide(f.inner)
	return f.inner.Run(child)
}
