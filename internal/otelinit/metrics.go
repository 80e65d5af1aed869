package otelinit

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
)

// Metrics holds scheduler instruments built by NewInstruments. Engine
// does not use it: WithMeter creates the Engine's own instruments from a
// Meter, which is all cmd/chronoctl passes in.
type Metrics struct {
	TasksDispatched metric.Int64Counter
	TasksFailed     metric.Int64Counter
	RunDuration     metric.Float64Histogram
}

// InitMetrics sets up a global OTLP push exporter. Returns a shutdown
// func and the Meter to hand to chronographer.WithSchedulerMeter.
func InitMetrics(ctx context.Context, service string) (shutdown func(context.Context) error, meter metric.Meter) {
	res, _ := sdkresource.Merge(sdkresource.Default(), sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(service),
		attribute.String("service", service),
	))
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT")
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		endpoint = "localhost:4317"
	}
	ctxInit, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exp, err := otlpmetricgrpc.New(ctxInit,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithDialOption(grpc.WithInsecure()),
	)
	if err != nil {
		slog.Warn("metrics exporter init failed", "error", err)
		return func(context.Context) error { return nil }, otel.GetMeterProvider().Meter("chronographer")
	}
	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(10*time.Second))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res))
	otel.SetMeterProvider(mp)
	slog.Info("metrics initialized", "endpoint", endpoint)
	return mp.Shutdown, mp.Meter("chronographer")
}

// NewInstruments builds the Metrics struct from an already-initialized
// meter, for callers that manage their own MeterProvider.
func NewInstruments(meter metric.Meter) Metrics {
	dispatched, _ := meter.Int64Counter("chronographer_tasks_dispatched_total")
	failed, _ := meter.Int64Counter("chronographer_tasks_failed_total")
	duration, _ := meter.Float64Histogram("chronographer_task_run_duration_ms")
	return Metrics{TasksDispatched: dispatched, TasksFailed: failed, RunDuration: duration}
}
