package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Password  string    `bun:"password,notnull" json:"-"` // Never expose password in JSON
	Name      string    `bun:"name,notnull" json:"name"`
	Role      Role      `bun:"role,notnull" json:"role"`
	IsActive  bool      `bun:"is_active,notnull,default:true" json:"isActive"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

type StudentProfile struct {
	bun.BaseModel `bun:"table:student_profiles,alias:sp"`

	ID             uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	UserID         uuid.UUID `bun:"user_id,type:uuid,unique,notnull" json:"userId"`
	FullName       string    `bun:"full_name,notnull" json:"fullName"`
	Department     string    `bun:"department" json:"department,omitempty"`
	GraduationYear int       `bun:"graduation_year" json:"graduationYear,omitempty"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

type CompanyProfile struct {
	bun.BaseModel `bun:"table:company_profiles,alias:cp"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,unique,notnull" json:"userId"`
	Name      string    `bun:"name,notnull" json:"name"`
	Website   string    `bun:"website" json:"website,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Actor is the resolved identity of the caller for one request.
// At most one of Student and Company is set, matching Role.
type Actor struct {
	UserID  uuid.UUID
	Role    Role
	Email   string
	Student *StudentProfile
	Company *CompanyProfile
}

// NewStudent holds what registration needs to create a student account.
type NewStudent struct {
	Email          string
	PasswordHash   string
	FullName       string
	Department     string
	GraduationYear int
}

type NewCompany struct {
	Email        string
	PasswordHash string
	ContactName  string
	CompanyName  string
	Website      string
}

// Models lists the identity tables in creation order.
func Models() []interface{} {
	return []interface{}{(*User)(nil), (*StudentProfile)(nil), (*CompanyProfile)(nil)}
}
