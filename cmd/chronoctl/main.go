package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/GitBrincie212/chronographer"
	"github.com/GitBrincie212/chronographer/internal/logging"
	"github.com/GitBrincie212/chronographer/internal/otelinit"
)

func main() {
	service := "chronoctl"
	logging.Init(service)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTrace := otelinit.InitTracer(ctx, service)
	shutdownMetrics, meter := otelinit.InitMetrics(ctx, service)

	store, err := chronographer.NewBoltPersistence("chronoctl.db")
	if err != nil {
		slog.Warn("durability disabled, proceeding in-memory", "error", err)
	}

	sched := chronographer.NewScheduler(
		chronographer.NewSystemClock(),
		chronographer.WithDurability(persistenceOrNoop(store)),
		chronographer.WithSchedulerMeter(meter),
	)

	demoFrame := chronographer.NewFrameBuilder(
		chronographer.NewExecutionFrame(func(tc *chronographer.TaskContext) error {
			slog.Info("heartbeat task ran")
			return nil
		}),
	).
		WithRetry(3, chronographer.JitterBackoff{
			Inner: chronographer.ExponentialBackoff{Base: 100 * time.Millisecond, Max: 2 * time.Second},
			Mode:  chronographer.FullJitter,
		}, nil).
		WithTimeout(5 * time.Second).
		Build()

	interval, _ := chronographer.NewIntervalSchedule(30 * time.Second)
	if _, err := sched.Schedule(demoFrame, interval, chronographer.SchedulingConcurrent(),
		chronographer.WithDebugLabel("heartbeat"),
	); err != nil {
		slog.Error("failed to schedule demo task", "error", err)
	}

	sched.Start(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/state", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(stateLabel(sched.State())))
	})

	srv := &http.Server{Addr: ":8080", Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
			cancel()
		}
	}()

	slog.Info("chronoctl started")
	<-ctx.Done()
	slog.Info("shutdown initiated")

	sched.Abort()
	if store != nil {
		_ = store.Close()
	}

	ctxSd, cancelSd := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelSd()
	_ = srv.Shutdown(ctxSd)
	otelinit.Flush(ctxSd, shutdownTrace)
	_ = shutdownMetrics(ctxSd)
	slog.Info("shutdown complete")
}

func persistenceOrNoop(p *chronographer.BoltPersistence) chronographer.PersistenceCollaborator {
	if p == nil {
		return chronographer.NoopPersistence{}
	}
	return p
}

func stateLabel(s chronographer.EngineState) string {
	switch s {
	case chronographer.StateIdleEmpty:
		return "idle-empty"
	case chronographer.StateWaiting:
		return "waiting"
	case chronographer.StateDispatching:
		return "dispatching"
	case chronographer.StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}
