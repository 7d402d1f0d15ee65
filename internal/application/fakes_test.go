package application_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"placement-service/internal/application"
	"placement-service/internal/event"
	"placement-service/internal/identity"
	"placement-service/internal/job"
	"placement-service/internal/pagination"

	"github.com/google/uuid"
)

type fakeJobs struct {
	mu       sync.Mutex
	jobs     map[uuid.UUID]*job.Job
	idsCalls int
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[uuid.UUID]*job.Job{}}
}

func (f *fakeJobs) add(companyID uuid.UUID, deadline time.Time, active bool) *job.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := &job.Job{
		ID:        uuid.New(),
		CompanyID: companyID,
		Title:     "SDE Intern",
		Deadline:  deadline,
		IsActive:  active,
		Company:   &identity.CompanyProfile{ID: companyID, Name: "Acme"},
	}
	f.jobs[j.ID] = j
	return j
}

func (f *fakeJobs) FindJob(_ context.Context, id uuid.UUID) (*job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, job.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobs) JobIDsByCompany(_ context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idsCalls++
	var ids []uuid.UUID
	for _, j := range f.jobs {
		if j.CompanyID == companyID {
			ids = append(ids, j.ID)
		}
	}
	return ids, nil
}

type fakeRepo struct {
	mu        sync.Mutex
	apps      map[uuid.UUID]*application.Application
	students  map[uuid.UUID]*identity.StudentProfile
	jobs      *fakeJobs
	events    []event.Envelope
	listCalls int
	// raceOnCreate makes Create report a duplicate as if a concurrent
	// insert won after the existence check.
	raceOnCreate bool
}

func newFakeRepo(jobs *fakeJobs) *fakeRepo {
	return &fakeRepo{
		apps:     map[uuid.UUID]*application.Application{},
		students: map[uuid.UUID]*identity.StudentProfile{},
		jobs:     jobs,
	}
}

func (f *fakeRepo) Create(_ context.Context, app *application.Application, evt event.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.raceOnCreate {
		return application.ErrDuplicateApplication
	}
	for _, a := range f.apps {
		if a.StudentID == app.StudentID && a.JobID == app.JobID {
			return application.ErrDuplicateApplication
		}
	}
	cp := *app
	cp.DecisionHistory = append([]application.Decision(nil), app.DecisionHistory...)
	f.apps[app.ID] = &cp
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeRepo) GetDetailed(ctx context.Context, id uuid.UUID) (*application.Application, error) {
	f.mu.Lock()
	a, ok := f.apps[id]
	if !ok {
		f.mu.Unlock()
		return nil, application.ErrApplicationNotFound
	}
	cp := *a
	cp.DecisionHistory = append([]application.Decision(nil), a.DecisionHistory...)
	cp.Student = f.students[a.StudentID]
	f.mu.Unlock()

	j, err := f.jobs.FindJob(ctx, a.JobID)
	if err == nil {
		cp.Job = j
	}
	return &cp, nil
}

func (f *fakeRepo) List(_ context.Context, filter application.Filter, p pagination.Params) ([]application.Application, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++

	inSet := func(id uuid.UUID) bool {
		for _, j := range filter.JobIDs {
			if j == id {
				return true
			}
		}
		return false
	}

	var out []application.Application
	for _, a := range f.apps {
		if filter.StudentID != nil && a.StudentID != *filter.StudentID {
			continue
		}
		if filter.JobIDs != nil && !inSet(a.JobID) {
			continue
		}
		if filter.JobID != nil && a.JobID != *filter.JobID {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(x, y int) bool { return out[x].CreatedAt.After(out[y].CreatedAt) })
	total := len(out)
	lo := min(p.Offset(), total)
	hi := min(lo+p.Limit, total)
	return out[lo:hi], total, nil
}

func (f *fakeRepo) ExistsForStudentJob(_ context.Context, studentID, jobID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.StudentID == studentID && a.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) SaveTransition(_ context.Context, app *application.Application, evt event.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.apps[app.ID]
	if !ok {
		return application.ErrApplicationNotFound
	}
	stored.Status = app.Status
	stored.DecisionHistory = append([]application.Decision(nil), app.DecisionHistory...)
	stored.UpdatedAt = app.UpdatedAt
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeRepo) stored(id uuid.UUID) application.Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.apps[id]
}

func (f *fakeRepo) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var types []string
	for _, e := range f.events {
		types = append(types, e.Type)
	}
	return types
}

func (f *fakeRepo) addStudent() application.StudentActor {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &identity.StudentProfile{ID: uuid.New(), UserID: uuid.New(), FullName: "Asha Rao"}
	f.students[p.ID] = p
	return application.StudentActor{User: p.UserID, Profile: p}
}

func companyActorFor(companyID uuid.UUID) application.CompanyActor {
	return application.CompanyActor{
		User:    uuid.New(),
		Profile: &identity.CompanyProfile{ID: companyID, Name: "Acme"},
	}
}

func adminActor() application.AdminActor {
	return application.AdminActor{User: uuid.New()}
}
