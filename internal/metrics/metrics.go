package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database  *DatabaseMetrics
	Messaging *MessagingMetrics
	Health    *HealthMetrics

	applicationsSubmitted metric.Int64Counter
	statusChanges         metric.Int64Counter
	notificationsSent     metric.Int64Counter
	notificationsFailed   metric.Int64Counter
	rateLimited           metric.Int64Counter
}

func New(meter metric.Meter, logger *slog.Logger) (*Metrics, error) {
	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	messaging, err := NewMessagingMetrics(meter)
	if err != nil {
		return nil, err
	}

	health, err := NewHealthMetrics(meter)
	if err != nil {
		return nil, err
	}

	m := &Metrics{Database: database, Messaging: messaging, Health: health}

	m.applicationsSubmitted, err = meter.Int64Counter(
		"placement.applications.submitted",
		metric.WithDescription("Total number of applications submitted"),
		metric.WithUnit("{application}"),
	)
	if err != nil {
		return nil, err
	}

	m.statusChanges, err = meter.Int64Counter(
		"placement.applications.status_changes",
		metric.WithDescription("Total number of application status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	m.notificationsSent, err = meter.Int64Counter(
		"placement.notifications.sent",
		metric.WithDescription("Notifications delivered, by channel"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	m.notificationsFailed, err = meter.Int64Counter(
		"placement.notifications.failed",
		metric.WithDescription("Notifications that could not be delivered, by channel"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	m.rateLimited, err = meter.Int64Counter(
		"placement.http.rate_limited",
		metric.WithDescription("Requests rejected by the rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("metrics collectors initialized successfully")
	return m, nil
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database:  &DatabaseMetrics{},
		Messaging: &MessagingMetrics{},
		Health:    &HealthMetrics{},
	}
}

func (m *Metrics) RecordApplicationSubmitted(ctx context.Context) {
	if m != nil && m.applicationsSubmitted != nil {
		m.applicationsSubmitted.Add(ctx, 1)
	}
}

func (m *Metrics) RecordStatusChange(ctx context.Context, status string) {
	if m != nil && m.statusChanges != nil {
		m.statusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func (m *Metrics) RecordNotification(ctx context.Context, channel string, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("channel", channel))
	if err != nil {
		if m.notificationsFailed != nil {
			m.notificationsFailed.Add(ctx, 1, attrs)
		}
		return
	}
	if m.notificationsSent != nil {
		m.notificationsSent.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) RecordRateLimited(ctx context.Context, route string) {
	if m != nil && m.rateLimited != nil {
		m.rateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
	}
}
