package app

import (
	"log/slog"

	"placement-service/internal/config"
	"placement-service/internal/event"
	"placement-service/internal/kafka"
	"placement-service/internal/messaging"
	"placement-service/internal/metrics"
	"placement-service/internal/rabbitmq"
)

const localBusBuffer = 256

// eventTransport is the publisher the outbox relay writes to and the
// subscriber the notifier reads from.
type eventTransport struct {
	driver     string
	publisher  event.Publisher
	subscriber event.Subscriber
}

func (t *eventTransport) Close(logger *slog.Logger) {
	if err := t.publisher.Close(); err != nil {
		logger.Error("event publisher close error", "driver", t.driver, "error", err)
	}
	if err := t.subscriber.Close(); err != nil {
		logger.Error("event subscriber close error", "driver", t.driver, "error", err)
	}
}

// newEventTransport connects the configured broker. When the broker is
// unreachable it falls back to the in-process bus.
func newEventTransport(cfg config.EventsConfig, logger *slog.Logger, m *metrics.Metrics) *eventTransport {
	t, err := connectBroker(cfg, logger, m)
	if err != nil {
		logger.Warn("event broker unavailable, using in-process bus", "driver", cfg.Driver, "error", err)
		return localTransport(logger)
	}
	if t == nil {
		return localTransport(logger)
	}
	logger.Info("event transport initialized", "driver", t.driver)
	return t
}

func localTransport(logger *slog.Logger) *eventTransport {
	bus := event.NewLocalBus(localBusBuffer, logger)
	return &eventTransport{driver: "local", publisher: bus, subscriber: bus}
}

func connectBroker(cfg config.EventsConfig, logger *slog.Logger, m *metrics.Metrics) (*eventTransport, error) {
	switch cfg.Driver {
	case "nats":
		producer, err := messaging.NewProducer(cfg.NATS.URL, cfg.NATS.Subject, logger)
		if err != nil {
			return nil, err
		}
		consumer, err := messaging.NewConsumer(cfg.NATS.URL, cfg.NATS.Subject, cfg.NATS.Queue, logger, m)
		if err != nil {
			producer.Close()
			return nil, err
		}
		return &eventTransport{driver: "nats", publisher: producer, subscriber: consumer}, nil

	case "kafka":
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return nil, err
		}
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, logger, m)
		if err != nil {
			producer.Close()
			return nil, err
		}
		return &eventTransport{driver: "kafka", publisher: producer, subscriber: consumer}, nil

	case "rabbitmq":
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger)
		if err != nil {
			return nil, err
		}
		consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, logger, m)
		if err != nil {
			publisher.Close()
			return nil, err
		}
		return &eventTransport{driver: "rabbitmq", publisher: publisher, subscriber: consumer}, nil

	case "", "local":
		return nil, nil

	default:
		logger.Warn("unknown events driver", "driver", cfg.Driver)
		return nil, nil
	}
}
