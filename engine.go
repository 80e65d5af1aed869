package chronographer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// EngineState is the Engine's coarse-grained run state, surfaced for
// observability and tests rather than for external control.
type EngineState int32

const (
	// StateIdleEmpty: the store holds no pending entries; the dispatch
	// loop is parked waiting for a Schedule call.
	StateIdleEmpty EngineState = iota
	// StateWaiting: at least one entry is pending; the loop is idling the
	// clock forward to the earliest due time.
	StateWaiting
	// StateDispatching: the loop is popping and launching due entries.
	StateDispatching
	// StateFinalizing: Abort was called or the Start context was
	// cancelled; in-flight runs have had their contexts cancelled and no
	// new runs will be dispatched.
	StateFinalizing
)

// rescheduleBacklog bounds how many completed-run reschedule requests may
// queue up behind a dispatch loop that is busy elsewhere; sized well
// above any realistic task count so producers never block in practice.
const rescheduleBacklog = 1024

// Engine owns the dispatch loop: it idles the clock forward to the
// earliest pending due time, pops and launches due tasks according to
// their SchedulingPolicy, and re-enqueues each task's next occurrence.
type Engine struct {
	clock       Clock
	store       TaskStore
	persistence PersistenceCollaborator
	idFactory   IdentifierFactory
	logger      *slog.Logger
	tracer      trace.Tracer

	dispatchCounter metric.Int64Counter
	failureCounter  metric.Int64Counter
	runDuration     metric.Float64Histogram

	mu           sync.Mutex
	tasks        map[TaskIdentifier]*Task
	cancelFuncs  map[TaskIdentifier]context.CancelFunc
	runningCount map[TaskIdentifier]int
	pendingRerun map[TaskIdentifier]StoredEntry

	wakeup       chan struct{}
	rescheduleCh chan StoredEntry

	state atomic.Int32

	rootCtx    context.Context
	rootCancel context.CancelFunc
	stopped    chan struct{}
	startOnce  sync.Once
	started    atomic.Bool
	wg         sync.WaitGroup
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

func WithPersistence(p PersistenceCollaborator) EngineOption {
	return func(e *Engine) { e.persistence = p }
}

func WithIdentifierFactory(f IdentifierFactory) EngineOption {
	return func(e *Engine) { e.idFactory = f }
}

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = tracer }
}

func WithMeter(meter metric.Meter) EngineOption {
	return func(e *Engine) {
		e.dispatchCounter, _ = meter.Int64Counter("chronographer.tasks.dispatched")
		e.failureCounter, _ = meter.Int64Counter("chronographer.tasks.failed")
		e.runDuration, _ = meter.Float64Histogram("chronographer.tasks.run_duration_ms")
	}
}

// NewEngine builds an Engine backed by store and clock. Pass NewHeapStore
// or NewWheelStore for store, SystemClock{} for production use or a
// VirtualClock in tests.
func NewEngine(clock Clock, store TaskStore, opts ...EngineOption) *Engine {
	e := &Engine{
		clock:        clock,
		store:        store,
		persistence:  NoopPersistence{},
		idFactory:    UUIDIdentifierFactory{},
		logger:       slog.Default(),
		tracer:       trace.NewNoopTracerProvider().Tracer("chronographer"),
		tasks:        make(map[TaskIdentifier]*Task),
		cancelFuncs:  make(map[TaskIdentifier]context.CancelFunc),
		runningCount: make(map[TaskIdentifier]int),
		pendingRerun: make(map[TaskIdentifier]StoredEntry),
		wakeup:       make(chan struct{}, 1),
		rescheduleCh: make(chan StoredEntry, rescheduleBacklog),
		stopped:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatchCounter == nil {
		WithMeter(noopMeter())(e)
	}
	return e
}

func (e *Engine) State() EngineState { return EngineState(e.state.Load()) }

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

// Schedule registers task and pushes its first due entry computed
// relative to the clock's current time.
func (e *Engine) Schedule(task *Task) error {
	now := e.clock.Now()
	due, err := task.Schedule().NextAfter(now)
	if err != nil {
		return newScheduleError("engine.schedule", err)
	}
	e.mu.Lock()
	e.tasks[task.ID()] = task
	e.mu.Unlock()
	e.store.Push(StoredEntry{Task: task, DueAt: due})
	task.Hooks().Emit(NewTaskContext(e.rootContext(), task.ID(), task.Priority(), task.DebugLabel(), task.MaxRuns(), 0, task.Hooks()), HookOnSchedule, due)
	_ = e.persistence.Save(PersistedRecord{
		ID: task.ID().String(), DueAt: due, Priority: task.Priority(),
		DebugLabel: task.DebugLabel(), MaxRuns: task.MaxRuns(), RunsSoFar: task.RunsSoFar(),
	})
	e.signalWakeup()
	return nil
}

func (e *Engine) rootContext() context.Context {
	if e.rootCtx != nil {
		return e.rootCtx
	}
	return context.Background()
}

// Cancel removes task's pending entry and, if a run is currently in
// flight, cancels it.
func (e *Engine) Cancel(id TaskIdentifier) bool {
	removed := e.store.Remove(id)
	e.mu.Lock()
	task := e.tasks[id]
	if cancel, ok := e.cancelFuncs[id]; ok {
		cancel()
	}
	delete(e.tasks, id)
	delete(e.pendingRerun, id)
	e.mu.Unlock()
	_ = e.persistence.Delete(id)
	if task != nil {
		cancelCtx := NewTaskContext(e.rootContext(), id, task.Priority(), task.DebugLabel(), task.MaxRuns(), int(task.RunsSoFar()), task.Hooks())
		cancelCtx.emit(HookOnCancel, nil)
	}
	return removed
}

// Exists reports whether id has a pending entry in the store.
func (e *Engine) Exists(id TaskIdentifier) bool {
	return e.store.Contains(id)
}

// Clear removes every pending task.
func (e *Engine) Clear() {
	e.mu.Lock()
	ids := make([]TaskIdentifier, 0, len(e.tasks))
	for id := range e.tasks {
		ids = append(ids, id)
	}
	e.mu.Unlock()
	for _, id := range ids {
		e.Cancel(id)
	}
}

// HasSucceeded implements TaskObserver for TaskDependency by consulting
// the registered task's own recorded outcome.
func (e *Engine) HasSucceeded(id TaskIdentifier) bool {
	e.mu.Lock()
	task, ok := e.tasks[id]
	e.mu.Unlock()
	if !ok {
		return false
	}
	return task.HasSucceeded(id)
}

// HasStarted reports whether Start has been called.
func (e *Engine) HasStarted() bool { return e.started.Load() }

// Start launches the dispatch loop in a background goroutine. Calling
// Start more than once is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		e.started.Store(true)
		e.rootCtx, e.rootCancel = context.WithCancel(ctx)
		if e.store.Len() == 0 {
			e.state.Store(int32(StateIdleEmpty))
		}
		e.wg.Add(1)
		go e.dispatchLoop()
	})
}

// Abort stops the dispatch loop, cancels the context of every in-flight
// run, and waits for those runs to return.
func (e *Engine) Abort() {
	e.state.Store(int32(StateFinalizing))
	if e.rootCancel != nil {
		e.rootCancel()
	}
	close(e.stopped)
	e.wg.Wait()
}

func (e *Engine) dispatchLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stopped:
			return
		case <-e.rootCtx.Done():
			e.state.Store(int32(StateFinalizing))
			return
		default:
		}

		entry, ok := e.store.Peek()
		if !ok {
			e.state.Store(int32(StateIdleEmpty))
			select {
			case <-e.wakeup:
				continue
			case <-e.stopped:
				return
			case <-e.rootCtx.Done():
				e.state.Store(int32(StateFinalizing))
				return
			}
		}

		e.state.Store(int32(StateWaiting))
		if !e.idleUntil(entry.DueAt) {
			continue
		}

		select {
		case <-e.stopped:
			return
		default:
		}

		e.state.Store(int32(StateDispatching))
		e.dispatchDue()
		e.drainReschedules()
	}
}

// idleUntil blocks until due or until stopped/wakeup signals a need to
// re-peek (e.g. a new, earlier task was just scheduled). It returns true
// when due has actually arrived.
func (e *Engine) idleUntil(due time.Time) bool {
	idleCtx, cancel := context.WithCancel(e.rootContext())
	defer cancel()

	idleDone := make(chan error, 1)
	go func() { idleDone <- e.clock.IdleTo(idleCtx, due) }()

	select {
	case <-idleDone:
		return true
	case <-e.wakeup:
		cancel()
		<-idleDone
		return false
	case <-e.stopped:
		cancel()
		<-idleDone
		return false
	}
}

func (e *Engine) drainReschedules() {
	for {
		select {
		case entry := <-e.rescheduleCh:
			e.store.Push(entry)
		default:
			return
		}
	}
}

// dispatchDue pops and launches every entry currently due.
func (e *Engine) dispatchDue() {
	now := e.clock.Now()
	for {
		entry, ok := e.store.Peek()
		if !ok || entry.DueAt.After(now) {
			return
		}
		entry, _ = e.store.Pop()
		e.launch(entry)
	}
}

// launch applies entry.Task's SchedulingPolicy and, if the policy allows
// it, starts the frame run in its own goroutine, then computes and
// enqueues the task's next occurrence.
func (e *Engine) launch(entry StoredEntry) {
	task := entry.Task
	id := task.ID()
	policy := task.Policy()

	e.mu.Lock()
	inFlight := e.runningCount[id] > 0
	e.mu.Unlock()

	dispatch := true
	switch policy.Kind() {
	case PolicySequential:
		if inFlight {
			dispatch = false
			e.mu.Lock()
			e.pendingRerun[id] = entry
			e.mu.Unlock()
		}
	case PolicyCancelPrevious:
		if inFlight {
			e.mu.Lock()
			cancel, ok := e.cancelFuncs[id]
			e.mu.Unlock()
			if ok {
				cancel()
				cancelCtx := NewTaskContext(e.rootContext(), id, task.Priority(), task.DebugLabel(), task.MaxRuns(), int(task.RunsSoFar()), task.Hooks())
				cancelCtx.emit(HookOnCancel, nil)
			}
		}
	case PolicyCancelCurrent:
		if inFlight {
			dispatch = false
		}
	case PolicyRateLimited:
		if !policy.Allow(e.clock.Now()) {
			dispatch = false
		}
	}

	if dispatch && !task.Exhausted() {
		e.runTask(task)
	}

	e.scheduleNext(task, entry.DueAt)
}

func (e *Engine) scheduleNext(task *Task, reference time.Time) {
	if task.Exhausted() {
		e.mu.Lock()
		delete(e.tasks, task.ID())
		e.mu.Unlock()
		_ = e.persistence.Delete(task.ID())
		return
	}
	next, err := task.Schedule().NextAfter(reference)
	if err != nil {
		e.logger.Error("chronographer: computing next occurrence", "task", task.ID().String(), "error", err)
		return
	}
	entry := StoredEntry{Task: task, DueAt: next}
	select {
	case e.rescheduleCh <- entry:
	default:
		e.store.Push(entry)
	}
}

// runTask dispatches one run of task's frame tree on its own goroutine,
// tracking it in runningCount/cancelFuncs so overlap policies can observe
// and act on it.
func (e *Engine) runTask(task *Task) {
	task.recordStart()

	runCtx, cancel := context.WithCancel(e.rootContext())
	e.mu.Lock()
	e.runningCount[task.ID()]++
	e.cancelFuncs[task.ID()] = cancel
	e.mu.Unlock()

	ctx := NewTaskContext(runCtx, task.ID(), task.Priority(), task.DebugLabel(), task.MaxRuns(), int(task.RunsSoFar()), task.Hooks())

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer cancel()

		spanCtx, span := e.tracer.Start(runCtx, "chronographer.task.run")
		_ = spanCtx
		start := time.Now()

		ctx.emit(HookOnTaskStart, nil)
		err := task.Frame().Run(ctx)
		task.recordOutcome(err)

		elapsed := time.Since(start)
		e.dispatchCounter.Add(runCtx, 1)
		e.runDuration.Record(runCtx, float64(elapsed.Milliseconds()))
		if err != nil {
			e.failureCounter.Add(runCtx, 1)
		}
		ctx.emit(HookOnTaskEnd, err)
		span.End()

		e.mu.Lock()
		e.runningCount[task.ID()]--
		if e.runningCount[task.ID()] <= 0 {
			delete(e.runningCount, task.ID())
			delete(e.cancelFuncs, task.ID())
		}
		rerun, hasRerun := e.pendingRerun[task.ID()]
		if hasRerun {
			delete(e.pendingRerun, task.ID())
		}
		e.mu.Unlock()

		if hasRerun && !task.Exhausted() {
			e.launch(rerun)
		}
	}()
}
