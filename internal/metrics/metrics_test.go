package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"placement-service/internal/logger"
	"placement-service/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := metrics.New(provider.Meter("placement-service"), logger.Discard())
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordApplicationSubmitted(ctx)
	m.RecordApplicationSubmitted(ctx)
	m.RecordStatusChange(ctx, "shortlisted")
	m.RecordNotification(ctx, "email", nil)
	m.RecordNotification(ctx, "email", errors.New("smtp down"))
	m.Database.RecordQuery(ctx, "select", "applications", 3*time.Millisecond, nil)
	m.Messaging.RecordPublish(ctx, "nats", time.Millisecond, nil)
	m.Health.RecordCheck(ctx, "postgres", time.Millisecond, nil)
	require.NoError(t, metrics.RegisterRuntime(provider.Meter("placement-service")))

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["placement.applications.submitted"]))
	assert.Equal(t, int64(1), sumOf(t, got["placement.applications.status_changes"]))
	assert.Equal(t, int64(1), sumOf(t, got["placement.notifications.sent"]))
	assert.Equal(t, int64(1), sumOf(t, got["placement.notifications.failed"]))
	assert.Equal(t, int64(1), sumOf(t, got["messaging.messages.published"]))
	assert.Contains(t, got, "db.query.duration")
	assert.Contains(t, got, "dependency.up")
	assert.Contains(t, got, "runtime.go.goroutines")
}

func TestMetrics_MockIsNoop(t *testing.T) {
	m := metrics.NewMock()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordApplicationSubmitted(ctx)
		m.RecordStatusChange(ctx, "selected")
		m.RecordNotification(ctx, "in_app", nil)
		m.RecordRateLimited(ctx, "apply")
		m.Database.RecordQuery(ctx, "insert", "applications", time.Millisecond, errors.New("boom"))
		m.Messaging.RecordPublish(ctx, "kafka", time.Millisecond, nil)
		m.Messaging.RecordConsume(ctx, "application.submitted", nil)
		m.Messaging.RecordOutboxBatch(ctx, 3)
		m.Health.RecordCheck(ctx, "postgres", time.Millisecond, errors.New("down"))
	})

	var nilMetrics *metrics.Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordApplicationSubmitted(ctx) })
}
