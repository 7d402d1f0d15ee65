package notification

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"placement-service/internal/apperror"
	"placement-service/internal/metrics"
	"placement-service/internal/pagination"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ErrNotificationNotFound = apperror.NotFound("notification not found")

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]Notification, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{db: db, metrics: m}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(n).Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "notifications", time.Since(start), err)
	return err
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]Notification, int, error) {
	start := time.Now()
	var items []Notification
	total, err := r.db.NewSelect().
		Model(&items).
		Where("n.user_id = ?", userID).
		OrderExpr("n.created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		ScanAndCount(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "notifications", time.Since(start), err)
	return items, total, err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Notification, error) {
	start := time.Now()
	n := new(Notification)
	err := r.db.NewSelect().Model(n).Where("n.id = ?", id).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "notifications", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

// MarkRead keeps the first read time if the notification was already read.
func (r *repository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	start := time.Now()
	_, err := r.db.NewUpdate().
		Model((*Notification)(nil)).
		Set("read_at = COALESCE(read_at, ?)", at).
		Where("id = ?", id).
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "update", "notifications", time.Since(start), err)
	return err
}
