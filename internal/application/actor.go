package application

import (
	"context"

	"placement-service/internal/apperror"
	"placement-service/internal/identity"

	"github.com/google/uuid"
)

// Actor is the caller of a lifecycle operation. It is a closed set:
// StudentActor, CompanyActor and AdminActor each carry their own view,
// update and list rules.
type Actor interface {
	UserID() uuid.UUID

	applicant() (*identity.StudentProfile, error)
	authorizeView(app *Application) error
	authorizeUpdate(app *Application) error
	listScope(ctx context.Context, jobs JobRegistry) (scope, error)
}

// scope restricts a listing. empty means the actor can see nothing and
// no query is needed.
type scope struct {
	filter Filter
	empty  bool
}

type StudentActor struct {
	User    uuid.UUID
	Profile *identity.StudentProfile
}

type CompanyActor struct {
	User    uuid.UUID
	Profile *identity.CompanyProfile
}

type AdminActor struct {
	User uuid.UUID
}

// ActorFrom converts a resolved identity into the lifecycle actor.
func ActorFrom(a *identity.Actor) (Actor, error) {
	if a == nil {
		return nil, apperror.Unauthorized("authentication required")
	}
	switch a.Role {
	case identity.RoleStudent:
		return StudentActor{User: a.UserID, Profile: a.Student}, nil
	case identity.RoleCompany:
		return CompanyActor{User: a.UserID, Profile: a.Company}, nil
	case identity.RoleAdmin:
		return AdminActor{User: a.UserID}, nil
	default:
		return nil, apperror.Forbidden("unknown role")
	}
}

func (s StudentActor) UserID() uuid.UUID { return s.User }

func (s StudentActor) applicant() (*identity.StudentProfile, error) {
	if s.Profile == nil {
		return nil, apperror.Forbidden("student profile not found")
	}
	return s.Profile, nil
}

func (s StudentActor) authorizeView(app *Application) error {
	if s.Profile == nil || app.StudentID != s.Profile.ID {
		return apperror.Forbidden("application belongs to another student")
	}
	return nil
}

func (s StudentActor) authorizeUpdate(*Application) error {
	return apperror.Forbidden("students cannot change application status")
}

func (s StudentActor) listScope(context.Context, JobRegistry) (scope, error) {
	if s.Profile == nil {
		return scope{}, apperror.Forbidden("student profile not found")
	}
	id := s.Profile.ID
	return scope{filter: Filter{StudentID: &id}}, nil
}

func (c CompanyActor) UserID() uuid.UUID { return c.User }

func (c CompanyActor) applicant() (*identity.StudentProfile, error) {
	return nil, apperror.Forbidden("only students can apply")
}

func (c CompanyActor) authorizeView(*Application) error {
	return nil
}

// authorizeUpdate expects app.Job to be loaded.
func (c CompanyActor) authorizeUpdate(app *Application) error {
	if c.Profile == nil || app.Job == nil || app.Job.CompanyID != c.Profile.ID {
		return apperror.Forbidden("application is for another company's job")
	}
	return nil
}

func (c CompanyActor) listScope(ctx context.Context, jobs JobRegistry) (scope, error) {
	if c.Profile == nil {
		return scope{}, apperror.Forbidden("company profile not found")
	}
	ids, err := jobs.JobIDsByCompany(ctx, c.Profile.ID)
	if err != nil {
		return scope{}, err
	}
	if len(ids) == 0 {
		return scope{empty: true}, nil
	}
	return scope{filter: Filter{JobIDs: ids}}, nil
}

func (a AdminActor) UserID() uuid.UUID { return a.User }

func (a AdminActor) applicant() (*identity.StudentProfile, error) {
	return nil, apperror.Forbidden("only students can apply")
}

func (a AdminActor) authorizeView(*Application) error { return nil }

func (a AdminActor) authorizeUpdate(*Application) error { return nil }

func (a AdminActor) listScope(context.Context, JobRegistry) (scope, error) {
	return scope{}, nil
}
