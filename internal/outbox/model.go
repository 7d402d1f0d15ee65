package outbox

import (
	"time"

	"placement-service/internal/event"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Event is one row of the outbox. Seq gives the publish order, which
// matches insertion order even for rows written in the same transaction.
type Event struct {
	bun.BaseModel `bun:"table:outbox_events,alias:oe"`

	Seq         int64          `bun:"seq,pk,autoincrement"`
	EventID     uuid.UUID      `bun:"event_id,type:uuid,unique,notnull"`
	Type        string         `bun:"type,notnull"`
	Envelope    event.Envelope `bun:"envelope,type:jsonb,notnull"`
	Attempts    int            `bun:"attempts,notnull,default:0"`
	LastError   string         `bun:"last_error"`
	CreatedAt   time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	PublishedAt *time.Time     `bun:"published_at,nullzero"`
	// DeadAt is set once the row has failed MaxAttempts publishes. Parked
	// rows are no longer picked up by the relay.
	DeadAt *time.Time `bun:"dead_at,nullzero"`
}

func Models() []interface{} {
	return []interface{}{(*Event)(nil)}
}

// Statements returns the extra DDL the relay query relies on.
func Statements() []string {
	return []string{
		`ALTER TABLE outbox_events ADD COLUMN IF NOT EXISTS dead_at timestamptz`,
		`CREATE INDEX IF NOT EXISTS outbox_events_ready_idx ON outbox_events (seq) WHERE published_at IS NULL AND dead_at IS NULL`,
	}
}
