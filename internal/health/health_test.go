package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"placement-service/internal/health"
	"placement-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHandler(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		ping   error
		status int
		body   string
	}{
		{"Health", "/health", nil, http.StatusOK, `"ok"`},
		{"HealthIgnoresDB", "/health", errors.New("down"), http.StatusOK, `"ok"`},
		{"Ready", "/ready", nil, http.StatusOK, `"ready"`},
		{"NotReady", "/ready", errors.New("down"), http.StatusServiceUnavailable, `"unavailable"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			health.NewHandler(pingFunc(func(context.Context) error { return tt.ping }), metrics.NewMock()).RegisterRoutes(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}
