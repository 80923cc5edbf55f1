package display

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("vkgraph.display")
	meter  = otel.Meter("vkgraph.display")
)

var (
	framesPresented metric.Int64Counter
	presentLatency  metric.Float64Histogram
	displayErrors   metric.Int64Counter
	fenceStalls     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		framesPresented, err = meter.Int64Counter(
			"display_frames_presented_total",
			metric.WithDescription("Frames submitted and presented"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		presentLatency, err = meter.Float64Histogram(
			"display_present_duration_seconds",
			metric.WithDescription("Time spent in PresentImage including the fence wait"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		displayErrors, err = meter.Int64Counter(
			"display_errors_total",
			metric.WithDescription("Failed acquire and present operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fenceStalls, err = meter.Int64Counter(
			"display_fence_stalls_total",
			metric.WithDescription("Presents that blocked on the previous submission to their image index"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordPresent(ctx context.Context, index uint32, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	framesPresented.Add(ctx, 1)
	presentLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Int("index", int(index))))
}

func recordStall(ctx context.Context, index uint32) {
	if initMetrics() != nil {
		return
	}
	fenceStalls.Add(ctx, 1, metric.WithAttributes(attribute.Int("index", int(index))))
}

func recordError(ctx context.Context, op string, err error) {
	if initMetrics() != nil {
		return
	}
	kind := "unknown"
	if e, ok := err.(*Error); ok {
		kind = e.Kind.String()
	}
	displayErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("kind", kind),
	))
}
