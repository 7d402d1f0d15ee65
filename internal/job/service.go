package job

import (
	"context"
	"log/slog"
	"strings"

	"placement-service/internal/apperror"
	"placement-service/internal/identity"
	"placement-service/internal/pagination"

	"github.com/google/uuid"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// FindJob returns the job with its company, or ErrJobNotFound.
func (s *Service) FindJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	return s.repo.GetByID(ctx, id)
}

// JobIDsByCompany returns the ids of every job the company has posted.
func (s *Service) JobIDsByCompany(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.IDsByCompany(ctx, companyID)
}

func (s *Service) Get(ctx context.Context, rawID string) (*Job, error) {
	id, err := apperror.ParseID("jobId", rawID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, p pagination.Params) (pagination.Page[Job], error) {
	jobs, total, err := s.repo.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[Job]{}, err
	}
	return pagination.NewPage(jobs, p, total), nil
}

// Create posts a job. Companies post for their own profile; admins must
// name an existing company.
func (s *Service) Create(ctx context.Context, actor *identity.Actor, req CreateJobRequest) (*Job, error) {
	companyID, err := s.owningCompany(ctx, actor, req.CompanyID)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		PackageLPA:  req.PackageLPA,
		Deadline:    req.Deadline.UTC(),
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "job posted", "job_id", job.ID, "company_id", companyID)
	return job, nil
}

// Close stops a job from accepting applications. Only the owning company
// or an admin may close it.
func (s *Service) Close(ctx context.Context, actor *identity.Actor, rawID string) (*Job, error) {
	id, err := apperror.ParseID("jobId", rawID)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case identity.RoleAdmin:
	case identity.RoleCompany:
		if actor.Company == nil || actor.Company.ID != job.CompanyID {
			return nil, apperror.Forbidden("job belongs to another company")
		}
	default:
		return nil, apperror.Forbidden("only companies and admins can close jobs")
	}

	if err := s.repo.Close(ctx, id); err != nil {
		return nil, err
	}
	job.IsActive = false

	s.logger.InfoContext(ctx, "job closed", "job_id", id, "by", actor.UserID)
	return job, nil
}

func (s *Service) owningCompany(ctx context.Context, actor *identity.Actor, requested string) (uuid.UUID, error) {
	switch actor.Role {
	case identity.RoleCompany:
		if actor.Company == nil {
			return uuid.Nil, apperror.Forbidden("company profile not found")
		}
		if requested != "" && requested != actor.Company.ID.String() {
			return uuid.Nil, apperror.Forbidden("cannot post jobs for another company")
		}
		return actor.Company.ID, nil
	case identity.RoleAdmin:
		if requested == "" {
			return uuid.Nil, apperror.Invalid("companyId", "is required")
		}
		companyID, err := apperror.ParseID("companyId", requested)
		if err != nil {
			return uuid.Nil, err
		}
		exists, err := s.repo.CompanyExists(ctx, companyID)
		if err != nil {
			return uuid.Nil, err
		}
		if !exists {
			return uuid.Nil, apperror.NotFound("company not found")
		}
		return companyID, nil
	default:
		return uuid.Nil, apperror.Forbidden("only companies and admins can post jobs")
	}
}
