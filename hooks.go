package chronographer

import "sync"

// HookEvent identifies a point in a task's lifecycle a Hook can observe.
type HookEvent int

const (
	// HookOnTaskStart fires once per task run, before the root frame
	// begins executing. Payload is always nil.
	HookOnTaskStart HookEvent = iota
	// HookOnTaskEnd fires once per task run, after the root frame has
	// returned. Payload is the run's error, or nil on success — the
	// single event a hook author subscribes to once to observe either
	// outcome.
	HookOnTaskEnd
	// HookOnRetryAttemptStart fires before each attempt inside a
	// RetryFrame. Payload is the 0-indexed attempt number.
	HookOnRetryAttemptStart
	// HookOnRetryAttemptEnd fires after each attempt inside a RetryFrame.
	// Payload is a RetryAttemptPayload carrying the attempt number and
	// that attempt's error (nil on success).
	HookOnRetryAttemptEnd
	// HookOnDelayStart fires before a DelayFrame begins suspending.
	// Payload is the configured time.Duration.
	HookOnDelayStart
	// HookOnDelayEnd fires once a DelayFrame's suspension has elapsed and
	// before its inner frame runs. Payload is the configured time.Duration.
	HookOnDelayEnd
	// HookOnTimeout fires when a TimeoutFrame's deadline elapses before
	// its child returned. Payload is the configured time.Duration.
	HookOnTimeout
	// HookOnFallback fires when a FallbackFrame falls through to its
	// secondary frame. Payload is the primary branch's error.
	HookOnFallback
	// HookOnTruthyValue fires when a ConditionalFrame's predicate
	// evaluates true, before the true branch runs. Payload is nil.
	HookOnTruthyValue
	// HookOnFalseyValue fires when a ConditionalFrame's predicate
	// evaluates false, before the false branch runs. Payload is nil.
	HookOnFalseyValue
	// HookOnDependencyValidation fires once per dependency queried by a
	// DependencyFrame, before the abort-on-first-false short circuit.
	// Payload is that dependency's resolved bool.
	HookOnDependencyValidation
	// HookOnChildTaskFrameStart fires before a Group frame (Sequential or
	// Parallel) starts one of its children. Payload is the child's int
	// index.
	HookOnChildTaskFrameStart
	// HookOnChildTaskFrameEnd fires after a Group frame's child returns.
	// Payload is a ChildTaskFrameEvent carrying the child's index and
	// its error, if any.
	HookOnChildTaskFrameEnd
	// HookOnTaskFrameSelection fires once a SelectFrame's accessor has
	// picked which child index it is about to subdivide into.
	HookOnTaskFrameSelection
	// HookOnThresholdReached fires when a ThresholdFrame's counter has
	// already reached its configured limit, before onReach decides the
	// frame's return value.
	HookOnThresholdReached
	// HookOnHookAttach fires once a hook has been attached to a
	// container. Payload is the HookEvent it was attached for — the
	// attach/detach events themselves carry no other data.
	HookOnHookAttach
	// HookOnHookDetach fires once a hook has been detached from a
	// container. Payload is the HookEvent it was detached from.
	HookOnHookDetach
	// HookOnCancel fires when Engine.Cancel (and so Clear) drops a task,
	// and when the CancelPrevious policy cancels an in-flight run. A
	// CancelCurrent skip and Abort do not emit it. Not named by the spec's event list but carried as a supplement the
	// same way OnHookAttach/OnHookDetach are: payload is nil.
	HookOnCancel
	// HookOnSchedule fires when a task is first registered with the
	// engine. A supplement alongside HookOnCancel, not part of the
	// spec's named event list. Payload is the computed due time.
	HookOnSchedule

	// HookEventNone is the sentinel non-emissible event: a hook that
	// wants membership in a container without ever observing a payload
	// (e.g. a hook registered purely to be discoverable via Get) can be
	// attached under this event. Emit is a no-op when called with it.
	HookEventNone
)

// RetryAttemptPayload is the HookOnRetryAttemptEnd payload: the
// 0-indexed retry attempt and that attempt's error (nil on success).
// HookOnRetryAttemptStart carries only the int attempt number.
type RetryAttemptPayload struct {
	Index int
	Err   error
}

// ChildTaskFrameEvent is the HookOnChildTaskFrameEnd payload: which
// index within the enclosing Group frame the child occupies, and its
// error (nil on success). HookOnChildTaskFrameStart carries only the int
// index.
type ChildTaskFrameEvent struct {
	Index int
	Err   error
}

// Hook is a type-erased callback attached to a HookEvent. The concrete
// payload type varies by event; callers type-assert on Payload.
type Hook interface {
	// Invoke is called synchronously on the goroutine running the frame
	// that triggered the event. Implementations must not block
	// indefinitely — a slow hook delays the task run that triggered it.
	Invoke(ctx *TaskContext, payload any)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx *TaskContext, payload any)

func (f HookFunc) Invoke(ctx *TaskContext, payload any) { f(ctx, payload) }

// HookContainer is a type-erased, two-level registry: event-id first,
// then an insertion-ordered list of hooks for that event. It is safe for
// concurrent attach/detach/emit from multiple frame goroutines, matching
// the concurrency the spec requires of Parallel/Concurrent task runs.
type HookContainer struct {
	mu    sync.RWMutex
	byEvt map[HookEvent][]hookEntry
	next  uint64
}

type hookEntry struct {
	id   uint64
	hook Hook
}

// HookHandle identifies a previously attached hook for later detachment.
type HookHandle struct {
	event HookEvent
	id    uint64
}

func NewHookContainer() *HookContainer {
	return &HookContainer{byEvt: make(map[HookEvent][]hookEntry)}
}

// Attach registers hook for event, then emits HookOnHookAttach(event),
// and returns a handle usable with Detach. ctx is threaded through to the
// HookOnHookAttach emission; it may be nil when attaching outside of any
// task run (e.g. at construction time), so hooks observing
// HookOnHookAttach must tolerate a nil *TaskContext.
func (c *HookContainer) Attach(event HookEvent, hook Hook) HookHandle {
	return c.AttachWithContext(nil, event, hook)
}

// AttachWithContext is Attach with an explicit TaskContext to pass to the
// resulting HookOnHookAttach emission.
func (c *HookContainer) AttachWithContext(ctx *TaskContext, event HookEvent, hook Hook) HookHandle {
	c.mu.Lock()
	c.next++
	id := c.next
	c.byEvt[event] = append(c.byEvt[event], hookEntry{id: id, hook: hook})
	c.mu.Unlock()
	c.Emit(ctx, HookOnHookAttach, event)
	return HookHandle{event: event, id: id}
}

// Detach removes a previously attached hook, then emits
// HookOnHookDetach(event). It is a no-op (including the emission) if the
// handle is unknown or was already detached.
func (c *HookContainer) Detach(handle HookHandle) {
	c.DetachWithContext(nil, handle)
}

// DetachWithContext is Detach with an explicit TaskContext to pass to the
// resulting HookOnHookDetach emission.
func (c *HookContainer) DetachWithContext(ctx *TaskContext, handle HookHandle) {
	c.mu.Lock()
	entries := c.byEvt[handle.event]
	removed := false
	for i, e := range entries {
		if e.id == handle.id {
			c.byEvt[handle.event] = append(entries[:i:i], entries[i+1:]...)
			removed = true
			break
		}
	}
	c.mu.Unlock()
	if removed {
		c.Emit(ctx, HookOnHookDetach, handle.event)
	}
}

// Emit invokes every hook attached to event, in attachment order, on the
// calling goroutine. HookEventNone is non-emissible: Emit is a no-op when
// called with it.
func (c *HookContainer) Emit(ctx *TaskContext, event HookEvent, payload any) {
	if event == HookEventNone {
		return
	}
	c.mu.RLock()
	entries := make([]hookEntry, len(c.byEvt[event]))
	copy(entries, c.byEvt[event])
	c.mu.RUnlock()
	for _, e := range entries {
		e.hook.Invoke(ctx, payload)
	}
}

// Get returns the hooks currently attached to event, for inspection.
func (c *HookContainer) Get(event HookEvent) []Hook {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Hook, 0, len(c.byEvt[event]))
	for _, e := range c.byEvt[event] {
		out = append(out, e.hook)
	}
	return out
}
