package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"placement-service/internal/apperror"
	"placement-service/internal/identity"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = apperror.Unauthorized("invalid email or password")
	ErrInvalidRefreshToken = apperror.Unauthorized("invalid or expired refresh token")
)

// Users is the slice of the identity store that auth needs.
type Users interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*identity.User, error)
	RegisterStudent(ctx context.Context, in identity.NewStudent) (*identity.User, *identity.StudentProfile, error)
	RegisterCompany(ctx context.Context, in identity.NewCompany) (*identity.User, *identity.CompanyProfile, error)
}

type Service struct {
	users      Users
	tokens     TokenStore
	issuer     *TokenIssuer
	refreshTTL time.Duration
	logger     *slog.Logger
}

func NewService(users Users, tokens TokenStore, issuer *TokenIssuer, refreshTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// Register creates a student or company account and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var user *identity.User
	switch req.Role {
	case identity.RoleStudent:
		user, _, err = s.users.RegisterStudent(ctx, identity.NewStudent{
			Email:          req.Email,
			PasswordHash:   hashedPassword,
			FullName:       req.Name,
			Department:     req.Department,
			GraduationYear: req.GraduationYear,
		})
	case identity.RoleCompany:
		user, _, err = s.users.RegisterCompany(ctx, identity.NewCompany{
			Email:        req.Email,
			PasswordHash: hashedPassword,
			ContactName:  req.Name,
			CompanyName:  req.CompanyName,
			Website:      req.Website,
		})
	default:
		return nil, apperror.Invalid("role", "must be one of: student company")
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account registered", "user_id", user.ID, "role", user.Role)
	return s.generateTokenPair(ctx, user)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("account is deactivated")
	}

	return s.generateTokenPair(ctx, user)
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	stored, err := s.tokens.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetUserByID(ctx, stored.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	if err := s.tokens.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.DeleteRefreshToken(ctx, refreshToken)
}

func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.tokens.DeleteAllUserTokens(ctx, userID)
}

// PurgeExpiredTokens deletes refresh tokens past their expiry.
func (s *Service) PurgeExpiredTokens(ctx context.Context) error {
	n, err := s.tokens.DeleteExpiredTokens(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired refresh tokens purged", "count", n)
	}
	return nil
}

func (s *Service) generateTokenPair(ctx context.Context, user *identity.User) (*AuthResponse, error) {
	accessToken, expiresAt, err := s.issuer.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.tokens.CreateRefreshToken(ctx, user.ID, refreshToken, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, err
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
