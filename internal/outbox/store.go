package outbox

import (
	"context"
	"time"

	"placement-service/internal/event"
	"placement-service/internal/metrics"

	"github.com/uptrace/bun"
)

// Insert writes e to the outbox using idb, which is normally the
// transaction that made the state change e describes.
func Insert(ctx context.Context, idb bun.IDB, e event.Envelope) error {
	row := &Event{
		EventID:  e.ID,
		Type:     e.Type,
		Envelope: e,
	}
	_, err := idb.NewInsert().Model(row).Exec(ctx)
	return err
}

// PublishFunc delivers one outbox row to the broker.
type PublishFunc func(ctx context.Context, row *Event) error

type Store interface {
	// ProcessPending hands up to limit unpublished rows to publish in order.
	// A failing row whose attempts reach maxAttempts is parked and the batch
	// moves on; any other failure stops the batch. It returns how many rows
	// were published.
	ProcessPending(ctx context.Context, limit, maxAttempts int, publish PublishFunc) (int, error)
	CountPending(ctx context.Context) (int, error)
}

type store struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewStore(db *bun.DB, m *metrics.Metrics) Store {
	return &store{db: db, metrics: m}
}

// ProcessPending locks the batch with SKIP LOCKED so concurrent relays
// never publish the same row twice.
func (s *store) ProcessPending(ctx context.Context, limit, maxAttempts int, publish PublishFunc) (int, error) {
	published := 0
	var publishErr error

	start := time.Now()
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var rows []Event
		err := tx.NewSelect().
			Model(&rows).
			Where("oe.published_at IS NULL").
			Where("oe.dead_at IS NULL").
			OrderExpr("oe.seq ASC").
			Limit(limit).
			For("UPDATE SKIP LOCKED").
			Scan(ctx)
		if err != nil {
			return err
		}

		for i := range rows {
			row := &rows[i]
			if err := publish(ctx, row); err != nil {
				parked := maxAttempts > 0 && row.Attempts+1 >= maxAttempts
				q := tx.NewUpdate().
					Model((*Event)(nil)).
					Set("attempts = attempts + 1").
					Set("last_error = ?", err.Error()).
					Where("seq = ?", row.Seq)
				if parked {
					q = q.Set("dead_at = ?", time.Now())
				}
				if _, uerr := q.Exec(ctx); uerr != nil {
					return uerr
				}
				if parked {
					continue
				}
				publishErr = err
				return nil
			}

			_, err := tx.NewUpdate().
				Model((*Event)(nil)).
				Set("published_at = ?", time.Now()).
				Set("attempts = attempts + 1").
				Where("seq = ?", row.Seq).
				Exec(ctx)
			if err != nil {
				return err
			}
			published++
		}
		return nil
	})
	s.metrics.Database.RecordQuery(ctx, "update", "outbox_events", time.Since(start), err)

	if err != nil {
		return 0, err
	}
	return published, publishErr
}

func (s *store) CountPending(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.db.NewSelect().
		Model((*Event)(nil)).
		Where("oe.published_at IS NULL").
		Where("oe.dead_at IS NULL").
		Count(ctx)
	s.metrics.Database.RecordQuery(ctx, "select", "outbox_events", time.Since(start), err)

	return n, err
}
