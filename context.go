package chronographer

import (
	"context"
	"sync"
)

// TaskContext carries per-run state through a task's frame tree: the
// owning task's identity, how deep into the frame tree the current frame
// sits, and a shared key-value scratch space frames can use to pass data
// to their descendants.
//
// A TaskContext is created once per task run and subdivided once per
// nested frame, so depth always reflects how many frame layers deep the
// current callback is executing.
type TaskContext struct {
	context.Context

	id         TaskIdentifier
	priority   int
	debugLabel string
	maxRuns    int

	runsSoFar int
	depth     int

	currentFrame TaskFrame
	hooks        *HookContainer

	shared   *sharedState
	parent   *TaskContext
}

// sharedState is the scratch space all TaskContexts derived from the same
// task run reference, so siblings in a Group frame can observe values a
// previously-run sibling recorded.
type sharedState struct {
	mu   sync.Mutex
	data map[string]any
}

// NewTaskContext builds the root TaskContext for a fresh task run.
func NewTaskContext(parent context.Context, id TaskIdentifier, priority int, debugLabel string, maxRuns int, runsSoFar int, hooks *HookContainer) *TaskContext {
	return &TaskContext{
		Context:    parent,
		id:         id,
		priority:   priority,
		debugLabel: debugLabel,
		maxRuns:    maxRuns,
		runsSoFar:  runsSoFar,
		depth:      0,
		hooks:      hooks,
		shared:     &sharedState{data: make(map[string]any)},
	}
}

func (c *TaskContext) ID() TaskIdentifier      { return c.id }
func (c *TaskContext) Priority() int           { return c.priority }
func (c *TaskContext) DebugLabel() string      { return c.debugLabel }
func (c *TaskContext) MaxRuns() int            { return c.maxRuns }
func (c *TaskContext) RunsSoFar() int          { return c.runsSoFar }
func (c *TaskContext) Depth() int              { return c.depth }
func (c *TaskContext) CurrentFrame() TaskFrame { return c.currentFrame }
func (c *TaskContext) Parent() *TaskContext    { return c.parent }

// subdivide returns a child TaskContext one depth level deeper, scoped to
// the given frame, sharing the same hooks registry and shared scratch
// space as the parent. Frames call this before invoking a nested frame
// (RetryFrame's inner, a Group's children, DependencyFrame's gated frame).
func (c *TaskContext) subdivide(frame TaskFrame) *TaskContext {
	return &TaskContext{
		Context:      c.Context,
		id:           c.id,
		priority:     c.priority,
		debugLabel:   c.debugLabel,
		maxRuns:      c.maxRuns,
		runsSoFar:    c.runsSoFar,
		depth:        c.depth + 1,
		currentFrame: frame,
		hooks:        c.hooks,
		shared:       c.shared,
		parent:       c,
	}
}

// withGoContext returns a copy of c carrying a replacement context.Context,
// used by TimeoutFrame, DependencyFrame and ParallelGroupFrame to attach
// a deadline or cancellation without losing the rest of the
// TaskContext's fields.
func (c *TaskContext) withGoContext(goCtx context.Context) *TaskContext {
	cp := *c
	cp.Context = goCtx
	return &cp
}

// emit invokes every hook attached to event with this context and payload.
func (c *TaskContext) emit(event HookEvent, payload any) {
	if c.hooks == nil {
		return
	}
	c.hooks.Emit(c, event, payload)
}

// attach registers hook for event on this context's hook registry.
func (c *TaskContext) attach(event HookEvent, hook Hook) HookHandle {
	return c.hooks.AttachWithContext(c, event, hook)
}

// detach removes a previously attached hook.
func (c *TaskContext) detach(handle HookHandle) {
	c.hooks.DetachWithContext(c, handle)
}

// sharedGet reads a value previously stored with sharedSet by this run or
// any of its sibling/ancestor frames.
func (c *TaskContext) sharedGet(key string) (any, bool) {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	v, ok := c.shared.data[key]
	return v, ok
}

// sharedSet records a value visible to every TaskContext subdivided from
// the same run, including siblings that have not executed yet.
func (c *TaskContext) sharedSet(key string, value any) {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	c.shared.data[key] = value
}
