package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"placement-service/internal/apperror"

	"github.com/google/uuid"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ResolveActor loads the caller's role and profile. Unknown or deactivated
// users are reported as Unauthorized.
func (s *Service) ResolveActor(ctx context.Context, userID uuid.UUID) (*Actor, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperror.Unauthorized("account not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("account is deactivated")
	}

	actor := &Actor{UserID: user.ID, Role: user.Role, Email: user.Email}
	switch user.Role {
	case RoleStudent:
		actor.Student, err = s.repo.GetStudentByUserID(ctx, user.ID)
	case RoleCompany:
		actor.Company, err = s.repo.GetCompanyByUserID(ctx, user.ID)
	case RoleAdmin:
	default:
		return nil, fmt.Errorf("user %s has unknown role %q", user.ID, user.Role)
	}
	if err != nil {
		return nil, err
	}
	return actor, nil
}

func (s *Service) FindActiveAdmins(ctx context.Context) ([]User, error) {
	return s.repo.ListActiveAdmins(ctx)
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetUserByEmail(ctx, email)
}

func (s *Service) RegisterStudent(ctx context.Context, in NewStudent) (*User, *StudentProfile, error) {
	return s.repo.CreateStudent(ctx, in)
}

func (s *Service) RegisterCompany(ctx context.Context, in NewCompany) (*User, *CompanyProfile, error) {
	return s.repo.CreateCompany(ctx, in)
}

// EnsureAdmin creates the bootstrap admin account if no user with that email exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, passwordHash, name string) error {
	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		if existing.Role != RoleAdmin {
			return fmt.Errorf("bootstrap admin email %s belongs to a %s account", email, existing.Role)
		}
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	user, err := s.repo.CreateAdmin(ctx, email, passwordHash, name)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil
		}
		return err
	}
	s.logger.InfoContext(ctx, "bootstrap admin created", "user_id", user.ID, "email", email)
	return nil
}
