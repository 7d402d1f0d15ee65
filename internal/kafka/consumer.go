package kafka

import (
	"context"
	"log/slog"

	"placement-service/internal/event"
	"placement-service/internal/metrics"

	"github.com/IBM/sarama"
)

type Consumer struct {
	consumer sarama.ConsumerGroup
	topic    string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger, m *metrics.Metrics) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_8_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	logger.Info("kafka consumer initialized", "brokers", brokers, "topic", topic, "group", groupID)

	return &Consumer{
		consumer: consumerGroup,
		topic:    topic,
		logger:   logger,
		metrics:  m,
	}, nil
}

func (c *Consumer) Subscribe(ctx context.Context, h event.Handler) error {
	handler := &ConsumerGroupHandler{
		Handle:  h,
		Logger:  c.logger,
		Metrics: c.metrics,
	}

	for {
		if err := c.consumer.Consume(ctx, []string{c.topic}, handler); err != nil {
			c.logger.Error("error consuming messages", "error", err)
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.consumer.Close()
}

// ConsumerGroupHandler implements sarama.ConsumerGroupHandler interface
type ConsumerGroupHandler struct {
	Handle  event.Handler
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim marks every message, including ones that fail to decode or
// handle, so a poison message never blocks the partition.
func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := session.Context()
	for msg := range claim.Messages() {
		e, err := event.Unmarshal(msg.Value)
		if err != nil {
			h.Logger.Error("failed to unmarshal event", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
			h.Metrics.Messaging.RecordConsume(ctx, "invalid", err)
			session.MarkMessage(msg, "")
			continue
		}

		err = h.Handle(ctx, e)
		h.Metrics.Messaging.RecordConsume(ctx, e.Type, err)
		if err != nil {
			h.Logger.ErrorContext(ctx, "event handler failed", "event_id", e.ID, "type", e.Type, "error", err)
		}

		session.MarkMessage(msg, "")
	}

	return nil
}
