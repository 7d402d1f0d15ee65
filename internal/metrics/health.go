package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HealthMetrics records readiness probes of the service's dependencies.
type HealthMetrics struct {
	dependencyUp  metric.Int64Gauge
	checkDuration metric.Float64Histogram
}

func NewHealthMetrics(meter metric.Meter) (*HealthMetrics, error) {
	hm := &HealthMetrics{}

	var err error

	hm.dependencyUp, err = meter.Int64Gauge(
		"dependency.up",
		metric.WithDescription("Dependency availability at the last check (1=up, 0=down)"),
		metric.WithUnit("{status}"),
	)
	if err != nil {
		return nil, err
	}

	hm.checkDuration, err = meter.Float64Histogram(
		"dependency.check.duration",
		metric.WithDescription("Dependency health check duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5),
	)
	if err != nil {
		return nil, err
	}

	return hm, nil
}

func (hm *HealthMetrics) RecordCheck(ctx context.Context, dependency string, duration time.Duration, err error) {
	if hm == nil || hm.dependencyUp == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("dependency", dependency))

	up := int64(1)
	if err != nil {
		up = 0
	}
	hm.dependencyUp.Record(ctx, up, attrs)
	hm.checkDuration.Record(ctx, duration.Seconds(), attrs)
}
