package messaging

import (
	"context"
	"log/slog"

	"placement-service/internal/event"
	"placement-service/internal/metrics"

	"github.com/nats-io/nats.go"
)

// Consumer receives events from a NATS subject. Replicas share a queue
// group so each event is handled once.
type Consumer struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	queue   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewConsumer(url, subject, queue string, logger *slog.Logger, m *metrics.Metrics) (*Consumer, error) {
	nc, err := connect(url, "placement-service-consumer", logger)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		conn:    nc,
		subject: subject,
		queue:   queue,
		logger:  logger,
		metrics: m,
	}, nil
}

func (c *Consumer) Subscribe(ctx context.Context, h event.Handler) error {
	sub, err := c.conn.QueueSubscribe(c.subject, c.queue, func(msg *nats.Msg) {
		e, err := event.Unmarshal(msg.Data)
		if err != nil {
			c.logger.Error("failed to unmarshal event", "subject", msg.Subject, "error", err)
			c.metrics.Messaging.RecordConsume(ctx, "invalid", err)
			return
		}

		err = h(ctx, e)
		c.metrics.Messaging.RecordConsume(ctx, e.Type, err)
		if err != nil {
			c.logger.ErrorContext(ctx, "event handler failed", "event_id", e.ID, "type", e.Type, "error", err)
		}
	})
	if err != nil {
		return err
	}

	c.sub = sub
	c.logger.Info("NATS consumer started", "subject", c.subject, "queue", c.queue)

	<-ctx.Done()
	return ctx.Err()
}

func (c *Consumer) Close() error {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	c.conn.Close()
	return nil
}

// HealthCheck verifies NATS connection is healthy
func (c *Consumer) HealthCheck() error {
	return healthCheck(c.conn)
}
