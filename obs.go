package chronographer

import (
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

// noopMeter provides a metric.Meter that discards every recorded value,
// used whenever WithMeter isn't supplied so instrument calls throughout
// the Engine never need a nil check.
func noopMeter() metric.Meter {
	return noopmetric.NewMeterProvider().Meter("chronographer")
}
