package auth

import (
	"time"

	"placement-service/internal/identity"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshToken stores refresh tokens in database
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rt"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Token     string    `bun:"token,unique,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest covers both self-service roles. Company accounts must
// also name the company; admins are never created through this endpoint.
type RegisterRequest struct {
	Email          string        `json:"email" validate:"required,email"`
	Password       string        `json:"password" validate:"required,min=8"`
	Name           string        `json:"name" validate:"required"`
	Role           identity.Role `json:"role" validate:"required,oneof=student company"`
	Department     string        `json:"department"`
	GraduationYear int           `json:"graduationYear" validate:"omitempty,min=1950,max=2100"`
	CompanyName    string        `json:"companyName" validate:"required_if=Role company"`
	Website        string        `json:"website" validate:"omitempty,url"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthResponse is the response for successful authentication
type AuthResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresAt    time.Time      `json:"expiresAt"`
	User         *identity.User `json:"user"`
}

func Models() []interface{} {
	return []interface{}{(*RefreshToken)(nil)}
}
