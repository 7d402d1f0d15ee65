package notification

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID        uuid.UUID         `bun:"id,pk,type:uuid" json:"id"`
	UserID    uuid.UUID         `bun:"user_id,type:uuid,notnull" json:"userId"`
	Title     string            `bun:"title,notnull" json:"title"`
	Message   string            `bun:"message,notnull" json:"message"`
	Metadata  map[string]string `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	ReadAt    *time.Time        `bun:"read_at,nullzero" json:"readAt,omitempty"`
	CreatedAt time.Time         `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

func Models() []interface{} {
	return []interface{}{(*Notification)(nil)}
}

// Statements returns the index backing the per-user listing.
func Statements() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS notifications_user_created_idx ON notifications (user_id, created_at DESC)`,
	}
}
