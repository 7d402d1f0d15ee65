package job

import (
	"time"

	"placement-service/internal/identity"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID          uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	CompanyID   uuid.UUID `bun:"company_id,type:uuid,notnull" json:"companyId"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description" json:"description,omitempty"`
	Location    string    `bun:"location" json:"location,omitempty"`
	PackageLPA  float64   `bun:"package_lpa" json:"packageLpa"`
	Deadline    time.Time `bun:"deadline,notnull" json:"deadline"`
	IsActive    bool      `bun:"is_active,notnull,default:true" json:"isActive"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	Company *identity.CompanyProfile `bun:"rel:belongs-to,join:company_id=id" json:"company,omitempty"`
}

// AcceptingApplications reports whether the posting is open at now.
func (j *Job) AcceptingApplications(now time.Time) bool {
	return j.IsActive && j.Deadline.After(now)
}

// CreateJobRequest is the body of POST /api/jobs. CompanyID is only read
// for admins; companies always post for their own profile.
type CreateJobRequest struct {
	CompanyID   string    `json:"companyId" validate:"omitempty,uuid"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	PackageLPA  float64   `json:"packageLpa" validate:"min=0"`
	Deadline    time.Time `json:"deadline" validate:"required"`
}

type ListFilter struct {
	CompanyID  *uuid.UUID
	ActiveOnly bool
}

func Models() []interface{} {
	return []interface{}{(*Job)(nil)}
}
