package chronographer

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Scheduler is the package's top-level entry point: construct one with
// NewScheduler, register tasks with Schedule, and call Start to begin
// dispatching due runs.
type Scheduler struct {
	engine *Engine
}

// SchedulerOption configures a Scheduler at construction time.
type SchedulerOption func(*schedulerConfig)

type schedulerConfig struct {
	store       TaskStore
	persistence PersistenceCollaborator
	idFactory   IdentifierFactory
	logger      *slog.Logger
	tracer      trace.Tracer
	meter       metric.Meter
}

// WithStore selects the TaskStore implementation. Defaults to
// NewHeapStore(), appropriate for most workloads; pass a WheelStore for
// very large task counts where O(1) push matters more than strict
// due-time ordering.
func WithStore(store TaskStore) SchedulerOption {
	return func(c *schedulerConfig) { c.store = store }
}

// WithDurability attaches a PersistenceCollaborator so pending tasks
// survive process restarts. Defaults to NoopPersistence{}.
func WithDurability(p PersistenceCollaborator) SchedulerOption {
	return func(c *schedulerConfig) { c.persistence = p }
}

// WithSchedulerIdentifierFactory overrides how task identifiers are
// minted. Defaults to UUIDIdentifierFactory{}.
func WithSchedulerIdentifierFactory(f IdentifierFactory) SchedulerOption {
	return func(c *schedulerConfig) { c.idFactory = f }
}

// WithSchedulerLogger overrides the scheduler's structured logger.
// Defaults to slog.Default().
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(c *schedulerConfig) { c.logger = logger }
}

// WithSchedulerTracer attaches an OpenTelemetry tracer. Defaults to a
// no-op tracer.
func WithSchedulerTracer(tracer trace.Tracer) SchedulerOption {
	return func(c *schedulerConfig) { c.tracer = tracer }
}

// WithSchedulerMeter attaches an OpenTelemetry meter. Defaults to a
// no-op meter.
func WithSchedulerMeter(meter metric.Meter) SchedulerOption {
	return func(c *schedulerConfig) { c.meter = meter }
}

// NewScheduler builds a Scheduler that idles against clock. Pass
// SystemClock{} in production, a *VirtualClock in tests.
func NewScheduler(clock Clock, opts ...SchedulerOption) *Scheduler {
	cfg := schedulerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = NewHeapStore()
	}

	var engineOpts []EngineOption
	if cfg.persistence != nil {
		engineOpts = append(engineOpts, WithPersistence(cfg.persistence))
	}
	if cfg.idFactory != nil {
		engineOpts = append(engineOpts, WithIdentifierFactory(cfg.idFactory))
	}
	if cfg.logger != nil {
		engineOpts = append(engineOpts, WithLogger(cfg.logger))
	}
	if cfg.tracer != nil {
		engineOpts = append(engineOpts, WithTracer(cfg.tracer))
	}
	if cfg.meter != nil {
		engineOpts = append(engineOpts, WithMeter(cfg.meter))
	}

	return &Scheduler{engine: NewEngine(clock, cfg.store, engineOpts...)}
}

// Schedule registers a new task, generating its identifier via the
// configured IdentifierFactory, and returns the identifier so callers can
// later Cancel it.
func (s *Scheduler) Schedule(frame TaskFrame, schedule Schedule, policy SchedulingPolicy, opts ...TaskOption) (TaskIdentifier, error) {
	id := s.engine.idFactory.Generate()
	task := NewTask(id, frame, schedule, policy, opts...)
	if err := s.engine.Schedule(task); err != nil {
		return TaskIdentifier{}, err
	}
	return id, nil
}

// Cancel removes a pending task and cancels any in-flight run of it.
// Reports whether a pending entry existed.
func (s *Scheduler) Cancel(id TaskIdentifier) bool {
	return s.engine.Cancel(id)
}

// Exists reports whether id currently has a pending entry.
func (s *Scheduler) Exists(id TaskIdentifier) bool {
	return s.engine.Exists(id)
}

// Clear removes every pending task.
func (s *Scheduler) Clear() {
	s.engine.Clear()
}

// Start begins the dispatch loop. ctx bounds the Scheduler's entire
// lifetime; cancelling it is equivalent to calling Abort.
func (s *Scheduler) Start(ctx context.Context) {
	s.engine.Start(ctx)
}

// Abort stops the dispatch loop and waits for in-flight runs to return.
func (s *Scheduler) Abort() {
	s.engine.Abort()
}

// HasStarted reports whether Start has been called.
func (s *Scheduler) HasStarted() bool {
	return s.engine.HasStarted()
}

// State returns the engine's current coarse-grained state.
func (s *Scheduler) State() EngineState {
	return s.engine.State()
}

// Observer exposes the scheduler as a TaskObserver, for constructing
// TaskDependency gates that reference other tasks registered with it.
func (s *Scheduler) Observer() TaskObserver {
	return s.engine
}
