// Package rabbitmq carries outbox events over a durable RabbitMQ queue.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"placement-service/internal/event"
	"placement-service/internal/metrics"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
}

func dial(url, queue string, logger *slog.Logger) (*client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &client{conn: conn, channel: ch, queue: q, logger: logger}, nil
}

func (c *client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	return c.conn.Close()
}

type Publisher struct {
	*client
}

// NewPublisher opens a channel in confirm mode so Publish only returns once
// the broker has accepted the message.
func NewPublisher(url, queue string, logger *slog.Logger) (*Publisher, error) {
	c, err := dial(url, queue, logger)
	if err != nil {
		return nil, err
	}
	if err := c.channel.Confirm(false); err != nil {
		c.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	logger.Info("RabbitMQ publisher initialized", "queue", queue)
	return &Publisher{client: c}, nil
}

func (p *Publisher) Publish(ctx context.Context, e event.Envelope) error {
	body, err := e.Marshal()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		"",           // default exchange
		p.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID.String(),
			Type:         e.Type,
			Timestamp:    e.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return err
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return errors.New("message nacked by broker")
	}
	return nil
}

type Consumer struct {
	*client
	metrics *metrics.Metrics
}

func NewConsumer(url, queue string, logger *slog.Logger, m *metrics.Metrics) (*Consumer, error) {
	c, err := dial(url, queue, logger)
	if err != nil {
		return nil, err
	}
	if err := c.channel.Qos(10, 0, false); err != nil {
		c.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}

	logger.Info("RabbitMQ consumer initialized", "queue", queue)
	return &Consumer{client: c, metrics: m}, nil
}

// Subscribe acks each delivery after the handler runs. Undecodable
// deliveries are rejected without requeue.
func (c *Consumer) Subscribe(ctx context.Context, h event.Handler) error {
	deliveries, err := c.channel.ConsumeWithContext(
		ctx,
		c.queue.Name,
		"",
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("RabbitMQ delivery channel closed")
			}

			e, err := event.Unmarshal(d.Body)
			if err != nil {
				c.logger.Error("invalid event format", "message_id", d.MessageId, "error", err)
				c.metrics.Messaging.RecordConsume(ctx, "invalid", err)
				d.Reject(false)
				continue
			}

			err = h(ctx, e)
			c.metrics.Messaging.RecordConsume(ctx, e.Type, err)
			if err != nil {
				c.logger.ErrorContext(ctx, "event handler failed", "event_id", e.ID, "type", e.Type, "error", err)
			}
			d.Ack(false)
		}
	}
}
