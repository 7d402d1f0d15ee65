package event

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrBusClosed = errors.New("event bus closed")

// LocalBus is an in-process Publisher and Subscriber backed by a buffered
// channel. It is used when no broker is configured or reachable.
type LocalBus struct {
	ch     chan Envelope
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewLocalBus(buffer int, logger *slog.Logger) *LocalBus {
	if buffer <= 0 {
		buffer = 256
	}
	return &LocalBus{ch: make(chan Envelope, buffer), logger: logger}
}

func (b *LocalBus) Publish(ctx context.Context, e Envelope) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe runs h for each event until ctx is cancelled or the bus is closed.
// Handler errors are logged; the event is not redelivered.
func (b *LocalBus) Subscribe(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-b.ch:
			if !ok {
				return nil
			}
			if err := h(ctx, e); err != nil {
				b.logger.ErrorContext(ctx, "local event handler failed", "event_id", e.ID, "type", e.Type, "error", err)
			}
		}
	}
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
	return nil
}
