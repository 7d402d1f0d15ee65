package application

import (
	"context"
	"log/slog"
	"time"

	"placement-service/internal/apperror"
	"placement-service/internal/event"
	"placement-service/internal/job"
	"placement-service/internal/metrics"
	"placement-service/internal/pagination"

	"github.com/google/uuid"
)

// JobRegistry is the slice of the job service the lifecycle depends on.
type JobRegistry interface {
	FindJob(ctx context.Context, id uuid.UUID) (*job.Job, error)
	JobIDsByCompany(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
}

type Service struct {
	repo    Repository
	jobs    JobRegistry
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo Repository, jobs JobRegistry, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		jobs:    jobs,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Apply submits the actor's application to a job and queues the
// submitted event in the same transaction.
func (s *Service) Apply(ctx context.Context, actor Actor, req ApplyRequest) (uuid.UUID, error) {
	student, err := actor.applicant()
	if err != nil {
		return uuid.Nil, err
	}

	jobID, err := apperror.ParseID("jobId", req.JobID)
	if err != nil {
		return uuid.Nil, err
	}
	j, err := s.jobs.FindJob(ctx, jobID)
	if err != nil {
		return uuid.Nil, err
	}

	now := s.now()
	if !j.AcceptingApplications(now) {
		return uuid.Nil, apperror.InvalidState("job is not accepting applications")
	}

	exists, err := s.repo.ExistsForStudentJob(ctx, student.ID, jobID)
	if err != nil {
		return uuid.Nil, err
	}
	if exists {
		return uuid.Nil, ErrDuplicateApplication
	}

	app := newApplication(student.ID, jobID, req.ResumeURL, req.CoverLetter, now)

	payload := event.ApplicationSubmitted{
		ApplicationID: app.ID,
		StudentID:     student.ID,
		StudentUserID: student.UserID,
		StudentName:   student.FullName,
		JobID:         j.ID,
		JobTitle:      j.Title,
	}
	if j.Company != nil {
		payload.CompanyName = j.Company.Name
	}
	evt, err := event.New(event.TypeApplicationSubmitted, app.ID.String(), payload)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.repo.Create(ctx, app, evt); err != nil {
		return uuid.Nil, err
	}

	s.metrics.RecordApplicationSubmitted(ctx)
	s.logger.InfoContext(ctx, "application submitted",
		"application_id", app.ID,
		"student_id", student.ID,
		"job_id", jobID,
	)
	return app.ID, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, rawID string) (*Application, error) {
	id, err := apperror.ParseID("applicationId", rawID)
	if err != nil {
		return nil, err
	}
	app, err := s.repo.GetDetailed(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := actor.authorizeView(app); err != nil {
		return nil, err
	}
	return app, nil
}

// List returns the applications visible to actor, newest first.
func (s *Service) List(ctx context.Context, actor Actor, q ListQuery) (pagination.Page[Application], error) {
	sc, err := actor.listScope(ctx, s.jobs)
	if err != nil {
		return pagination.Page[Application]{}, err
	}

	filter := sc.filter
	if q.JobID != "" {
		jobID, err := apperror.ParseID("jobId", q.JobID)
		if err != nil {
			return pagination.Page[Application]{}, err
		}
		filter.JobID = &jobID
	}

	if sc.empty {
		return pagination.NewPage[Application](nil, q.Page, 0), nil
	}

	apps, total, err := s.repo.List(ctx, filter, q.Page)
	if err != nil {
		return pagination.Page[Application]{}, err
	}
	return pagination.NewPage(apps, q.Page, total), nil
}

// UpdateStatus records a decision on an application and queues the
// status-changed event. Any decision may follow any status.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, rawID string, req UpdateStatusRequest) (*Application, error) {
	if !req.Status.IsDecision() {
		return nil, apperror.Invalid("status", "must be one of shortlisted rejected selected")
	}
	id, err := apperror.ParseID("applicationId", rawID)
	if err != nil {
		return nil, err
	}

	app, err := s.repo.GetDetailed(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := actor.authorizeUpdate(app); err != nil {
		return nil, err
	}

	prev := app.Transition(req.Status, s.now())

	payload := event.ApplicationStatusChanged{
		ApplicationID:  app.ID,
		JobID:          app.JobID,
		PreviousStatus: string(prev),
		Status:         string(req.Status),
		ChangedBy:      actor.UserID(),
	}
	if app.Student != nil {
		payload.StudentUserID = app.Student.UserID
		payload.StudentName = app.Student.FullName
	}
	if app.Job != nil {
		payload.JobTitle = app.Job.Title
		if app.Job.Company != nil {
			payload.CompanyName = app.Job.Company.Name
		}
	}
	evt, err := event.New(event.TypeApplicationStatusChanged, app.ID.String(), payload)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveTransition(ctx, app, evt); err != nil {
		return nil, err
	}

	s.metrics.RecordStatusChange(ctx, string(req.Status))
	s.logger.InfoContext(ctx, "application status updated",
		"application_id", app.ID,
		"from", prev,
		"to", req.Status,
		"by", actor.UserID(),
	)
	return app, nil
}
