package outbox

import (
	"context"
	"log/slog"
	"time"

	"placement-service/internal/event"
	"placement-service/internal/metrics"
)

// Relay moves committed outbox rows to the event publisher.
type Relay struct {
	store     Store
	publisher event.Publisher
	interval  time.Duration
	batchSize int
	// maxAttempts bounds how often one row is retried before it is parked.
	maxAttempts int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

const DefaultMaxAttempts = 10

func NewRelay(store Store, publisher event.Publisher, interval time.Duration, batchSize, maxAttempts int, logger *slog.Logger, m *metrics.Metrics) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Relay{
		store:       store,
		publisher:   publisher,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		logger:      logger,
		metrics:     m,
	}
}

// Run dispatches pending events every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("outbox relay started", "interval", r.interval, "batch_size", r.batchSize, "max_attempts", r.maxAttempts)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
			for {
				n, err := r.DispatchPending(ctx)
				if err != nil {
					r.logger.WarnContext(ctx, "outbox dispatch incomplete", "published", n, "error", err)
					break
				}
				// A full batch means more may be waiting.
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// DispatchPending publishes one batch in order and returns how many rows
// were published. A publish failure leaves that row and the rest pending,
// unless the row has used up its attempts, in which case it is parked and
// the batch continues.
func (r *Relay) DispatchPending(ctx context.Context) (int, error) {
	n, err := r.store.ProcessPending(ctx, r.batchSize, r.maxAttempts, func(ctx context.Context, row *Event) error {
		start := time.Now()
		err := r.publisher.Publish(ctx, row.Envelope)
		r.metrics.Messaging.RecordPublish(ctx, row.Type, time.Since(start), err)
		if err != nil && row.Attempts+1 >= r.maxAttempts {
			r.logger.ErrorContext(ctx, "outbox event parked after repeated publish failures",
				"event_id", row.EventID, "type", row.Type, "attempts", row.Attempts+1, "error", err)
		}
		return err
	})
	r.metrics.Messaging.RecordOutboxBatch(ctx, n)

	if n > 0 {
		r.logger.DebugContext(ctx, "outbox events published", "count", n)
	}
	return n, err
}
