package application_test

import (
	"context"
	"testing"
	"time"

	"placement-service/internal/application"
	"placement-service/internal/apperror"
	"placement-service/internal/event"
	"placement-service/internal/logger"
	"placement-service/internal/metrics"
	"placement-service/internal/pagination"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	jobs    *fakeJobs
	repo    *fakeRepo
	svc     *application.Service
	company uuid.UUID
}

func newFixture() *fixture {
	jobs := newFakeJobs()
	repo := newFakeRepo(jobs)
	return &fixture{
		jobs:    jobs,
		repo:    repo,
		svc:     application.NewService(repo, jobs, logger.Discard(), metrics.NewMock()),
		company: uuid.New(),
	}
}

func (f *fixture) openJob() uuid.UUID {
	return f.jobs.add(f.company, time.Now().Add(72*time.Hour), true).ID
}

func applyReq(jobID uuid.UUID) application.ApplyRequest {
	return application.ApplyRequest{JobID: jobID.String(), ResumeURL: "https://x/r1.pdf"}
}

func assertHistoryConsistent(t *testing.T, app application.Application) {
	t.Helper()
	require.NotEmpty(t, app.DecisionHistory)
	assert.Equal(t, application.StatusApplied, app.DecisionHistory[0].Status)
	assert.Equal(t, app.Status, app.DecisionHistory[len(app.DecisionHistory)-1].Status)
}

func TestService_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesAppliedApplication", func(t *testing.T) {
		f := newFixture()
		student := f.repo.addStudent()
		jobID := f.openJob()

		id, err := f.svc.Apply(ctx, student, applyReq(jobID))
		require.NoError(t, err)

		app := f.repo.stored(id)
		assert.Equal(t, application.StatusApplied, app.Status)
		assert.Len(t, app.DecisionHistory, 1)
		assert.Equal(t, "https://x/r1.pdf", app.ResumeURL)
		assertHistoryConsistent(t, app)
		assert.Equal(t, []string{event.TypeApplicationSubmitted}, f.repo.eventTypes())

		var payload event.ApplicationSubmitted
		require.NoError(t, f.repo.events[0].Decode(&payload))
		assert.Equal(t, id, payload.ApplicationID)
		assert.Equal(t, student.User, payload.StudentUserID)
		assert.Equal(t, "Acme", payload.CompanyName)
		assert.Equal(t, id.String(), f.repo.events[0].Key)
	})

	t.Run("SecondApplyConflicts", func(t *testing.T) {
		f := newFixture()
		student := f.repo.addStudent()
		jobID := f.openJob()

		_, err := f.svc.Apply(ctx, student, applyReq(jobID))
		require.NoError(t, err)

		_, err = f.svc.Apply(ctx, student, applyReq(jobID))
		assert.ErrorIs(t, err, apperror.ErrConflict)
		assert.Len(t, f.repo.apps, 1)
		assert.Len(t, f.repo.events, 1)
	})

	t.Run("StoreRaceConflicts", func(t *testing.T) {
		f := newFixture()
		f.repo.raceOnCreate = true

		_, err := f.svc.Apply(ctx, f.repo.addStudent(), applyReq(f.openJob()))
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("PastDeadline", func(t *testing.T) {
		f := newFixture()
		j := f.jobs.add(f.company, time.Now().Add(-24*time.Hour), true)

		_, err := f.svc.Apply(ctx, f.repo.addStudent(), applyReq(j.ID))
		assert.ErrorIs(t, err, apperror.ErrInvalidState)
		assert.Empty(t, f.repo.apps)
	})

	t.Run("InactiveJob", func(t *testing.T) {
		f := newFixture()
		j := f.jobs.add(f.company, time.Now().Add(24*time.Hour), false)

		_, err := f.svc.Apply(ctx, f.repo.addStudent(), applyReq(j.ID))
		assert.ErrorIs(t, err, apperror.ErrInvalidState)
		assert.Empty(t, f.repo.apps)
	})

	t.Run("MalformedJobID", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Apply(ctx, f.repo.addStudent(), application.ApplyRequest{JobID: "nope", ResumeURL: "https://x/r.pdf"})
		assert.ErrorIs(t, err, apperror.ErrInvalidReference)
	})

	t.Run("UnknownJob", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Apply(ctx, f.repo.addStudent(), applyReq(uuid.New()))
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("NonStudentsForbidden", func(t *testing.T) {
		f := newFixture()
		jobID := f.openJob()
		for _, actor := range []application.Actor{
			companyActorFor(f.company),
			adminActor(),
			application.StudentActor{User: uuid.New()},
		} {
			_, err := f.svc.Apply(ctx, actor, applyReq(jobID))
			assert.ErrorIs(t, err, apperror.ErrForbidden)
		}
		assert.Empty(t, f.repo.apps)
	})
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerThenAdmin", func(t *testing.T) {
		f := newFixture()
		student := f.repo.addStudent()
		id, err := f.svc.Apply(ctx, student, applyReq(f.openJob()))
		require.NoError(t, err)

		app, err := f.svc.UpdateStatus(ctx, companyActorFor(f.company), id.String(),
			application.UpdateStatusRequest{Status: application.StatusShortlisted})
		require.NoError(t, err)
		assert.Equal(t, application.StatusShortlisted, app.Status)
		assert.Len(t, app.DecisionHistory, 2)

		admin := adminActor()
		app, err = f.svc.UpdateStatus(ctx, admin, id.String(),
			application.UpdateStatusRequest{Status: application.StatusSelected})
		require.NoError(t, err)
		assert.Len(t, app.DecisionHistory, 3)

		stored := f.repo.stored(id)
		assertHistoryConsistent(t, stored)
		assert.Equal(t, application.StatusSelected, stored.Status)

		assert.Equal(t, []string{
			event.TypeApplicationSubmitted,
			event.TypeApplicationStatusChanged,
			event.TypeApplicationStatusChanged,
		}, f.repo.eventTypes())

		var payload event.ApplicationStatusChanged
		require.NoError(t, f.repo.events[2].Decode(&payload))
		assert.Equal(t, "shortlisted", payload.PreviousStatus)
		assert.Equal(t, "selected", payload.Status)
		assert.Equal(t, admin.User, payload.ChangedBy)
		assert.Equal(t, student.User, payload.StudentUserID)
	})

	t.Run("OtherCompanyForbiddenWithoutMutation", func(t *testing.T) {
		f := newFixture()
		id, err := f.svc.Apply(ctx, f.repo.addStudent(), applyReq(f.openJob()))
		require.NoError(t, err)

		_, err = f.svc.UpdateStatus(ctx, companyActorFor(uuid.New()), id.String(),
			application.UpdateStatusRequest{Status: application.StatusRejected})
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		stored := f.repo.stored(id)
		assert.Equal(t, application.StatusApplied, stored.Status)
		assert.Len(t, stored.DecisionHistory, 1)
		assert.Len(t, f.repo.events, 1)
	})

	t.Run("StudentForbidden", func(t *testing.T) {
		f := newFixture()
		student := f.repo.addStudent()
		id, err := f.svc.Apply(ctx, student, applyReq(f.openJob()))
		require.NoError(t, err)

		_, err = f.svc.UpdateStatus(ctx, student, id.String(),
			application.UpdateStatusRequest{Status: application.StatusSelected})
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("PermissiveTransitions", func(t *testing.T) {
		f := newFixture()
		id, err := f.svc.Apply(ctx, f.repo.addStudent(), applyReq(f.openJob()))
		require.NoError(t, err)

		admin := adminActor()
		sequence := []application.Status{
			application.StatusSelected,
			application.StatusRejected,
			application.StatusSelected,
			application.StatusSelected,
		}
		for i, status := range sequence {
			before := f.repo.stored(id).DecisionHistory

			_, err := f.svc.UpdateStatus(ctx, admin, id.String(), application.UpdateStatusRequest{Status: status})
			require.NoError(t, err)

			after := f.repo.stored(id)
			require.Len(t, after.DecisionHistory, i+2)
			assert.Equal(t, before, after.DecisionHistory[:len(before)])
			assertHistoryConsistent(t, after)
		}
	})

	t.Run("InvalidTarget", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.UpdateStatus(ctx, adminActor(), uuid.NewString(),
			application.UpdateStatusRequest{Status: application.StatusApplied})
		assert.ErrorIs(t, err, apperror.ErrValidationFailed)
	})

	t.Run("MalformedID", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.UpdateStatus(ctx, adminActor(), "42",
			application.UpdateStatusRequest{Status: application.StatusRejected})
		assert.ErrorIs(t, err, apperror.ErrInvalidReference)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.UpdateStatus(ctx, adminActor(), uuid.NewString(),
			application.UpdateStatusRequest{Status: application.StatusRejected})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := f.repo.addStudent()
	id, err := f.svc.Apply(ctx, owner, applyReq(f.openJob()))
	require.NoError(t, err)

	t.Run("Owner", func(t *testing.T) {
		app, err := f.svc.Get(ctx, owner, id.String())
		require.NoError(t, err)
		assert.Equal(t, id, app.ID)
		require.NotNil(t, app.Job)
		require.NotNil(t, app.Job.Company)
		assert.Equal(t, "Acme", app.Job.Company.Name)
	})

	t.Run("OtherStudentForbidden", func(t *testing.T) {
		_, err := f.svc.Get(ctx, f.repo.addStudent(), id.String())
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("CompanyAndAdminBypass", func(t *testing.T) {
		_, err := f.svc.Get(ctx, companyActorFor(uuid.New()), id.String())
		assert.NoError(t, err)
		_, err = f.svc.Get(ctx, adminActor(), id.String())
		assert.NoError(t, err)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := f.svc.Get(ctx, adminActor(), "abc")
		assert.ErrorIs(t, err, apperror.ErrInvalidReference)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := f.svc.Get(ctx, adminActor(), uuid.NewString())
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	otherCompany := uuid.New()
	ownJob := f.openJob()
	otherJob := f.jobs.add(otherCompany, time.Now().Add(24*time.Hour), true).ID

	s1 := f.repo.addStudent()
	s2 := f.repo.addStudent()
	for _, tc := range []struct {
		student application.StudentActor
		job     uuid.UUID
	}{
		{s1, ownJob}, {s1, otherJob}, {s2, ownJob}, {s2, otherJob},
	} {
		_, err := f.svc.Apply(ctx, tc.student, applyReq(tc.job))
		require.NoError(t, err)
	}

	t.Run("StudentSeesOwn", func(t *testing.T) {
		page, err := f.svc.List(ctx, s1, application.ListQuery{Page: pagination.New(1, 10)})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Pagination.Total)
		for _, a := range page.Items {
			assert.Equal(t, s1.Profile.ID, a.StudentID)
		}
	})

	t.Run("CompanySeesOwnJobsOnEveryPage", func(t *testing.T) {
		company := companyActorFor(f.company)
		for pageNo := 1; pageNo <= 2; pageNo++ {
			page, err := f.svc.List(ctx, company, application.ListQuery{Page: pagination.New(pageNo, 1)})
			require.NoError(t, err)
			assert.Equal(t, 2, page.Pagination.Total)
			require.Len(t, page.Items, 1)
			assert.Equal(t, ownJob, page.Items[0].JobID)
		}
	})

	t.Run("AdminSeesAll", func(t *testing.T) {
		page, err := f.svc.List(ctx, adminActor(), application.ListQuery{Page: pagination.New(1, 10)})
		require.NoError(t, err)
		assert.Equal(t, 4, page.Pagination.Total)
	})

	t.Run("JobFilterNarrows", func(t *testing.T) {
		page, err := f.svc.List(ctx, adminActor(), application.ListQuery{Page: pagination.New(1, 10), JobID: otherJob.String()})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Pagination.Total)
	})

	t.Run("MalformedJobFilter", func(t *testing.T) {
		_, err := f.svc.List(ctx, adminActor(), application.ListQuery{Page: pagination.New(1, 10), JobID: "x"})
		assert.ErrorIs(t, err, apperror.ErrInvalidReference)
	})

	t.Run("CompanyWithoutJobsSkipsQuery", func(t *testing.T) {
		calls := f.repo.listCalls
		page, err := f.svc.List(ctx, companyActorFor(uuid.New()), application.ListQuery{Page: pagination.New(1, 10)})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Pagination.Total)
		assert.Empty(t, page.Items)
		assert.Equal(t, calls, f.repo.listCalls)
	})

	t.Run("MissingProfilesForbidden", func(t *testing.T) {
		_, err := f.svc.List(ctx, application.StudentActor{User: uuid.New()}, application.ListQuery{Page: pagination.New(1, 10)})
		assert.ErrorIs(t, err, apperror.ErrForbidden)
		_, err = f.svc.List(ctx, application.CompanyActor{User: uuid.New()}, application.ListQuery{Page: pagination.New(1, 10)})
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})
}
