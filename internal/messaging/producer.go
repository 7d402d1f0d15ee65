package messaging

import (
	"context"
	"log/slog"
	"time"

	"placement-service/internal/event"

	"github.com/nats-io/nats.go"
)

const headerEventType = "Event-Type"

type Producer struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewProducer(url string, subject string, logger *slog.Logger) (*Producer, error) {
	nc, err := connect(url, "placement-service-producer", logger)
	if err != nil {
		return nil, err
	}

	logger.Info("NATS producer initialized", "url", url, "subject", subject)

	return &Producer{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

// Publish sends the envelope and flushes so that a nil error means the
// server has received it.
func (p *Producer) Publish(ctx context.Context, e event.Envelope) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set(headerEventType, e.Type)
	msg.Header.Set(nats.MsgIdHdr, e.ID.String())
	msg.Data = data

	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.ErrorContext(ctx, "failed to send message to NATS", "event_id", e.ID, "error", err)
		return err
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "event sent to NATS", "subject", p.subject, "type", e.Type, "event_id", e.ID)
	return nil
}

func (p *Producer) HealthCheck() error {
	return healthCheck(p.conn)
}

func (p *Producer) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
	return nil
}

func connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name(name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
}

func healthCheck(conn *nats.Conn) error {
	if conn == nil {
		return nats.ErrConnectionClosed
	}
	if !conn.IsConnected() {
		return nats.ErrDisconnected
	}
	return nil
}
