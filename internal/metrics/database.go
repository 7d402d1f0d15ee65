package metrics

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DatabaseMetrics covers Postgres query latency per table plus pool
// saturation of the shared *sql.DB.
type DatabaseMetrics struct {
	queryDuration metric.Float64Histogram
	queryErrors   metric.Int64Counter

	poolOpen     metric.Int64ObservableGauge
	poolInUse    metric.Int64ObservableGauge
	poolIdle     metric.Int64ObservableGauge
	poolWaits    metric.Int64ObservableCounter
	poolWaitTime metric.Float64ObservableCounter
}

func NewDatabaseMetrics(meter metric.Meter) (*DatabaseMetrics, error) {
	var (
		dm  DatabaseMetrics
		err error
	)

	if dm.queryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Duration of repository queries and transactions"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	); err != nil {
		return nil, err
	}

	if dm.queryErrors, err = meter.Int64Counter(
		"db.query.errors",
		metric.WithDescription("Repository queries that returned an error"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if dm.poolOpen, err = meter.Int64ObservableGauge("db.pool.open",
		metric.WithDescription("Open connections in the pool"),
		metric.WithUnit("{connection}"),
	); err != nil {
		return nil, err
	}
	if dm.poolInUse, err = meter.Int64ObservableGauge("db.pool.in_use",
		metric.WithDescription("Connections currently checked out"),
		metric.WithUnit("{connection}"),
	); err != nil {
		return nil, err
	}
	if dm.poolIdle, err = meter.Int64ObservableGauge("db.pool.idle",
		metric.WithDescription("Idle connections in the pool"),
		metric.WithUnit("{connection}"),
	); err != nil {
		return nil, err
	}
	if dm.poolWaits, err = meter.Int64ObservableCounter("db.pool.waits",
		metric.WithDescription("Times a caller waited for a free connection"),
		metric.WithUnit("{wait}"),
	); err != nil {
		return nil, err
	}
	if dm.poolWaitTime, err = meter.Float64ObservableCounter("db.pool.wait_time",
		metric.WithDescription("Total time spent waiting for a free connection"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return &dm, nil
}

// RegisterDB observes db.Stats() on every collection.
func (dm *DatabaseMetrics) RegisterDB(db *sql.DB, meter metric.Meter) error {
	_, err := meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			s := db.Stats()
			o.ObserveInt64(dm.poolOpen, int64(s.OpenConnections))
			o.ObserveInt64(dm.poolInUse, int64(s.InUse))
			o.ObserveInt64(dm.poolIdle, int64(s.Idle))
			o.ObserveInt64(dm.poolWaits, s.WaitCount)
			o.ObserveFloat64(dm.poolWaitTime, s.WaitDuration.Seconds())
			return nil
		},
		dm.poolOpen, dm.poolInUse, dm.poolIdle, dm.poolWaits, dm.poolWaitTime,
	)
	return err
}

// RecordQuery is a no-op on the zero value, which is what NewMock hands out.
func (dm *DatabaseMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	if dm == nil || dm.queryDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.table", table),
	)
	dm.queryDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		dm.queryErrors.Add(ctx, 1, attrs)
	}
}
