package application

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"placement-service/internal/apperror"
	"placement-service/internal/db"
	"placement-service/internal/event"
	"placement-service/internal/metrics"
	"placement-service/internal/outbox"
	"placement-service/internal/pagination"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrApplicationNotFound  = apperror.NotFound("application not found")
	ErrDuplicateApplication = apperror.Conflict("you have already applied to this job")
)

type Repository interface {
	// Create inserts app and its outbox event in one transaction.
	Create(ctx context.Context, app *Application, evt event.Envelope) error
	// GetDetailed loads app with student (and user), job and company.
	GetDetailed(ctx context.Context, id uuid.UUID) (*Application, error)
	List(ctx context.Context, filter Filter, p pagination.Params) ([]Application, int, error)
	ExistsForStudentJob(ctx context.Context, studentID, jobID uuid.UUID) (bool, error)
	// SaveTransition writes status, history and the outbox event in one
	// transaction.
	SaveTransition(ctx context.Context, app *Application, evt event.Envelope) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{db: db, metrics: m}
}

func (r *repository) Create(ctx context.Context, app *Application, evt event.Envelope) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(app).Exec(ctx); err != nil {
			return err
		}
		return outbox.Insert(ctx, tx, evt)
	})
	r.metrics.Database.RecordQuery(ctx, "insert", "applications", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateApplication
		}
		return err
	}
	return nil
}

func (r *repository) GetDetailed(ctx context.Context, id uuid.UUID) (*Application, error) {
	start := time.Now()
	app := new(Application)
	err := r.db.NewSelect().
		Model(app).
		Relation("Student").
		Relation("Student.User").
		Relation("Job").
		Relation("Job.Company").
		Where("a.id = ?", id).
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "applications", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

func (r *repository) List(ctx context.Context, filter Filter, p pagination.Params) ([]Application, int, error) {
	start := time.Now()
	var apps []Application
	q := r.db.NewSelect().
		Model(&apps).
		Relation("Student").
		Relation("Job").
		Relation("Job.Company")
	if filter.StudentID != nil {
		q = q.Where("a.student_id = ?", *filter.StudentID)
	}
	if filter.JobIDs != nil {
		q = q.Where("a.job_id IN (?)", bun.In(filter.JobIDs))
	}
	if filter.JobID != nil {
		q = q.Where("a.job_id = ?", *filter.JobID)
	}
	total, err := q.
		OrderExpr("a.created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		ScanAndCount(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "applications", time.Since(start), err)

	return apps, total, err
}

func (r *repository) ExistsForStudentJob(ctx context.Context, studentID, jobID uuid.UUID) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*Application)(nil)).
		Where("a.student_id = ?", studentID).
		Where("a.job_id = ?", jobID).
		Exists(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "applications", time.Since(start), err)

	return exists, err
}

// SaveTransition overwrites decision_history with the in-memory slice.
// Two concurrent transitions on one application can therefore lose an
// entry: there is no version check.
func (r *repository) SaveTransition(ctx context.Context, app *Application, evt event.Envelope) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model(app).
			Column("status", "decision_history", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			return ErrApplicationNotFound
		}
		return outbox.Insert(ctx, tx, evt)
	})
	r.metrics.Database.RecordQuery(ctx, "update", "applications", time.Since(start), err)

	return err
}
