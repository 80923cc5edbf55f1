package pool

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("vkgraph.pool")

var (
	leaseHits   metric.Int64Counter
	leaseMisses metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		leaseHits, err = meter.Int64Counter(
			"pool_lease_hits_total",
			metric.WithDescription("Leases served from an idle pooled object"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		leaseMisses, err = meter.Int64Counter(
			"pool_lease_misses_total",
			metric.WithDescription("Leases that had to create a new device object"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordLease(ctx context.Context, kind string, hit bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	if hit {
		leaseHits.Add(ctx, 1, attrs)
	} else {
		leaseMisses.Add(ctx, 1, attrs)
	}
}
