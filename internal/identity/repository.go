package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"placement-service/internal/apperror"
	"placement-service/internal/db"
	"placement-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrUserNotFound = apperror.NotFound("user not found")
	ErrEmailExists  = apperror.Conflict("email already exists")
)

type Repository interface {
	CreateStudent(ctx context.Context, in NewStudent) (*User, *StudentProfile, error)
	CreateCompany(ctx context.Context, in NewCompany) (*User, *CompanyProfile, error)
	CreateAdmin(ctx context.Context, email, passwordHash, name string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetStudentByUserID(ctx context.Context, userID uuid.UUID) (*StudentProfile, error)
	GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*CompanyProfile, error)
	ListActiveAdmins(ctx context.Context) ([]User, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{db: db, metrics: m}
}

func (r *repository) CreateStudent(ctx context.Context, in NewStudent) (*User, *StudentProfile, error) {
	user := &User{
		ID:       uuid.New(),
		Email:    in.Email,
		Password: in.PasswordHash,
		Name:     in.FullName,
		Role:     RoleStudent,
		IsActive: true,
	}
	profile := &StudentProfile{
		ID:             uuid.New(),
		UserID:         user.ID,
		FullName:       in.FullName,
		Department:     in.Department,
		GraduationYear: in.GraduationYear,
	}

	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(user).Returning("*").Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(profile).Returning("*").Exec(ctx)
		return err
	})
	r.metrics.Database.RecordQuery(ctx, "insert", "student_profiles", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, err
	}
	return user, profile, nil
}

func (r *repository) CreateCompany(ctx context.Context, in NewCompany) (*User, *CompanyProfile, error) {
	user := &User{
		ID:       uuid.New(),
		Email:    in.Email,
		Password: in.PasswordHash,
		Name:     in.ContactName,
		Role:     RoleCompany,
		IsActive: true,
	}
	profile := &CompanyProfile{
		ID:      uuid.New(),
		UserID:  user.ID,
		Name:    in.CompanyName,
		Website: in.Website,
	}

	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(user).Returning("*").Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(profile).Returning("*").Exec(ctx)
		return err
	})
	r.metrics.Database.RecordQuery(ctx, "insert", "company_profiles", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, err
	}
	return user, profile, nil
}

func (r *repository) CreateAdmin(ctx context.Context, email, passwordHash, name string) (*User, error) {
	user := &User{
		ID:       uuid.New(),
		Email:    email,
		Password: passwordHash,
		Name:     name,
		Role:     RoleAdmin,
		IsActive: true,
	}

	start := time.Now()
	_, err := r.db.NewInsert().Model(user).Returning("*").Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "users", time.Since(start), err)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return user, nil
}

func (r *repository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	start := time.Now()
	user := new(User)
	err := r.db.NewSelect().Model(user).Where("u.id = ?", id).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	start := time.Now()
	user := new(User)
	err := r.db.NewSelect().Model(user).Where("u.email = ?", email).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetStudentByUserID returns (nil, nil) when the user has no student profile.
func (r *repository) GetStudentByUserID(ctx context.Context, userID uuid.UUID) (*StudentProfile, error) {
	start := time.Now()
	profile := new(StudentProfile)
	err := r.db.NewSelect().Model(profile).Where("sp.user_id = ?", userID).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "student_profiles", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

// GetCompanyByUserID returns (nil, nil) when the user has no company profile.
func (r *repository) GetCompanyByUserID(ctx context.Context, userID uuid.UUID) (*CompanyProfile, error) {
	start := time.Now()
	profile := new(CompanyProfile)
	err := r.db.NewSelect().Model(profile).Where("cp.user_id = ?", userID).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "company_profiles", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return profile, nil
}

func (r *repository) ListActiveAdmins(ctx context.Context) ([]User, error) {
	start := time.Now()
	var admins []User
	err := r.db.NewSelect().
		Model(&admins).
		Where("u.role = ?", RoleAdmin).
		Where("u.is_active = TRUE").
		OrderExpr("u.created_at ASC").
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	return admins, err
}
