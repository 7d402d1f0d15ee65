package job

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"placement-service/internal/apperror"
	"placement-service/internal/identity"
	"placement-service/internal/metrics"
	"placement-service/internal/pagination"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ErrJobNotFound = apperror.NotFound("job not found")

type Repository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*Job, error)
	List(ctx context.Context, filter ListFilter, p pagination.Params) ([]Job, int, error)
	IDsByCompany(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
	Close(ctx context.Context, id uuid.UUID) error
	CompanyExists(ctx context.Context, companyID uuid.UUID) (bool, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{db: db, metrics: m}
}

func (r *repository) Create(ctx context.Context, job *Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}

	start := time.Now()
	_, err := r.db.NewInsert().Model(job).Returning("*").Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "jobs", time.Since(start), err)

	return err
}

// GetByID loads the job with its company.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Job, error) {
	start := time.Now()
	job := new(Job)
	err := r.db.NewSelect().
		Model(job).
		Relation("Company").
		Where("j.id = ?", id).
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "jobs", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, p pagination.Params) ([]Job, int, error) {
	start := time.Now()
	var jobs []Job
	q := r.db.NewSelect().
		Model(&jobs).
		Relation("Company")
	if filter.CompanyID != nil {
		q = q.Where("j.company_id = ?", *filter.CompanyID)
	}
	if filter.ActiveOnly {
		q = q.Where("j.is_active = TRUE").Where("j.deadline > ?", time.Now())
	}
	total, err := q.
		OrderExpr("j.created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset()).
		ScanAndCount(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "jobs", time.Since(start), err)

	return jobs, total, err
}

func (r *repository) IDsByCompany(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	start := time.Now()
	var ids []uuid.UUID
	err := r.db.NewSelect().
		Model((*Job)(nil)).
		Column("j.id").
		Where("j.company_id = ?", companyID).
		Scan(ctx, &ids)
	r.metrics.Database.RecordQuery(ctx, "select", "jobs", time.Since(start), err)

	return ids, err
}

func (r *repository) Close(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model((*Job)(nil)).
		Set("is_active = FALSE").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "update", "jobs", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *repository) CompanyExists(ctx context.Context, companyID uuid.UUID) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*identity.CompanyProfile)(nil)).
		Where("cp.id = ?", companyID).
		Exists(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "company_profiles", time.Since(start), err)

	return exists, err
}
