package application

import (
	"time"

	"placement-service/internal/identity"
	"placement-service/internal/job"
	"placement-service/internal/pagination"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Status string

const (
	StatusApplied     Status = "applied"
	StatusShortlisted Status = "shortlisted"
	StatusRejected    Status = "rejected"
	StatusSelected    Status = "selected"
)

// IsDecision reports whether s may be set through a status update.
// Applied is only ever written on creation.
func (s Status) IsDecision() bool {
	switch s {
	case StatusShortlisted, StatusRejected, StatusSelected:
		return true
	}
	return false
}

// Decision is one entry of an application's history.
type Decision struct {
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Application struct {
	bun.BaseModel `bun:"table:applications,alias:a"`

	ID              uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	StudentID       uuid.UUID  `bun:"student_id,type:uuid,notnull,unique:student_job" json:"studentId"`
	JobID           uuid.UUID  `bun:"job_id,type:uuid,notnull,unique:student_job" json:"jobId"`
	Status          Status     `bun:"status,notnull" json:"status"`
	ResumeURL       string     `bun:"resume_url,notnull" json:"resumeUrl"`
	CoverLetter     string     `bun:"cover_letter,nullzero" json:"coverLetter,omitempty"`
	DecisionHistory []Decision `bun:"decision_history,type:jsonb,notnull" json:"decisionHistory"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	Student *identity.StudentProfile `bun:"rel:belongs-to,join:student_id=id" json:"student,omitempty"`
	Job     *job.Job                 `bun:"rel:belongs-to,join:job_id=id" json:"job,omitempty"`
}

// newApplication builds an application in the applied state with its
// first history entry stamped at creation.
func newApplication(studentID, jobID uuid.UUID, resumeURL, coverLetter string, now time.Time) *Application {
	return &Application{
		ID:              uuid.New(),
		StudentID:       studentID,
		JobID:           jobID,
		Status:          StatusApplied,
		ResumeURL:       resumeURL,
		CoverLetter:     coverLetter,
		DecisionHistory: []Decision{{Status: StatusApplied, UpdatedAt: now}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Transition records a decision and returns the previous status. Any
// decision is accepted from any current status.
func (a *Application) Transition(to Status, now time.Time) Status {
	prev := a.Status
	a.DecisionHistory = append(a.DecisionHistory, Decision{Status: to, UpdatedAt: now})
	a.Status = to
	a.UpdatedAt = now
	return prev
}

type ApplyRequest struct {
	JobID       string `json:"jobId" validate:"required"`
	ResumeURL   string `json:"resumeUrl" validate:"required,url"`
	CoverLetter string `json:"coverLetter" validate:"max=5000"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=shortlisted rejected selected"`
}

type ApplyResponse struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

// ListQuery holds the caller-supplied list parameters. JobID is the raw
// query value and may be empty.
type ListQuery struct {
	Page  pagination.Params
	JobID string
}

// Filter is the resolved repository filter. A nil JobIDs slice means no
// job-set restriction.
type Filter struct {
	StudentID *uuid.UUID
	JobIDs    []uuid.UUID
	JobID     *uuid.UUID
}

func Models() []interface{} {
	return []interface{}{(*Application)(nil)}
}
