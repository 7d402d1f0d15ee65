package job_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"placement-service/internal/auth"
	"placement-service/internal/identity"
	"placement-service/internal/job"
	"placement-service/internal/logger"
	"placement-service/internal/pagination"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJobRouter(svc *job.Service) *chi.Mux {
	r := chi.NewRouter()
	job.NewHandler(svc, logger.Discard()).RegisterRoutes(r)
	return r
}

func asActor(req *http.Request, actor *identity.Actor) *http.Request {
	return req.WithContext(auth.WithActor(req.Context(), actor))
}

func TestHandler_CreateJob(t *testing.T) {
	svc := job.NewService(newFakeRepo(), logger.Discard())
	router := newJobRouter(svc)

	t.Run("Success", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"title":      "Data Analyst",
			"location":   "Pune",
			"packageLpa": 9,
			"deadline":   time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		})
		req := asActor(httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(body)), companyActor())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var created job.Job
		require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
		assert.Equal(t, "Data Analyst", created.Title)
	})

	t.Run("MissingTitle", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{
			"deadline": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		})
		req := asActor(httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(body)), companyActor())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "title")
	})

	t.Run("StudentForbidden", func(t *testing.T) {
		body, _ := json.Marshal(map[string]interface{}{"title": "x", "deadline": time.Now().Format(time.RFC3339)})
		req := asActor(httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(body)), studentActor())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestHandler_ListAndGet(t *testing.T) {
	ctx := context.Background()
	svc := job.NewService(newFakeRepo(), logger.Discard())
	router := newJobRouter(svc)
	owner := companyActor()

	open, err := svc.Create(ctx, owner, validRequest())
	require.NoError(t, err)
	closed, err := svc.Create(ctx, owner, validRequest())
	require.NoError(t, err)
	_, err = svc.Close(ctx, owner, closed.ID.String())
	require.NoError(t, err)

	t.Run("ActiveOnly", func(t *testing.T) {
		req := asActor(httptest.NewRequest(http.MethodGet, "/api/jobs?activeOnly=true", nil), studentActor())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var page pagination.Page[job.Job]
		require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
		require.Len(t, page.Items, 1)
		assert.Equal(t, open.ID, page.Items[0].ID)
		assert.Equal(t, 1, page.Pagination.Total)
	})

	t.Run("All", func(t *testing.T) {
		req := asActor(httptest.NewRequest(http.MethodGet, "/api/jobs?limit=1", nil), studentActor())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var page pagination.Page[job.Job]
		require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
		assert.Len(t, page.Items, 1)
		assert.Equal(t, pagination.Meta{Page: 1, Limit: 1, Total: 2, TotalPages: 2}, page.Pagination)
	})

	t.Run("InvalidCompanyFilter", func(t *testing.T) {
		req := asActor(httptest.NewRequest(http.MethodGet, "/api/jobs?companyId=abc", nil), studentActor())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("GetByID", func(t *testing.T) {
		req := asActor(httptest.NewRequest(http.MethodGet, "/api/jobs/"+open.ID.String(), nil), studentActor())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("GetMalformedID", func(t *testing.T) {
		req := asActor(httptest.NewRequest(http.MethodGet, "/api/jobs/xyz", nil), studentActor())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CloseByOtherCompany", func(t *testing.T) {
		req := asActor(httptest.NewRequest(http.MethodPatch, "/api/jobs/"+open.ID.String()+"/close", nil), companyActor())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
