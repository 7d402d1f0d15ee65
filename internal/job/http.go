package job

import (
	"log/slog"
	"net/http"

	"placement-service/internal/apperror"
	"placement-service/internal/auth"
	"placement-service/internal/httputil"
	"placement-service/internal/identity"
	"placement-service/internal/pagination"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: httputil.NewValidator(),
		logger:   logger,
	}
}

// RegisterRoutes mounts the job routes on a router that already runs the
// authentication middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/jobs", func(r chi.Router) {
		r.Get("/", h.ListJobs)
		r.Get("/{jobId}", h.GetJob)
		r.With(auth.RequireRole(identity.RoleCompany, identity.RoleAdmin)).Post("/", h.CreateJob)
		r.With(auth.RequireRole(identity.RoleCompany, identity.RoleAdmin)).Patch("/{jobId}/close", h.CloseJob)
	})
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req CreateJobRequest
	if err := httputil.DecodeJSON(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	job, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, job)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{ActiveOnly: q.Get("activeOnly") == "true"}
	if raw := q.Get("companyId"); raw != "" {
		companyID, err := apperror.ParseID("companyId", raw)
		if err != nil {
			httputil.RespondWithServiceError(w, r, h.logger, err)
			return
		}
		filter.CompanyID = &companyID
	}

	page, err := h.service.List(r.Context(), filter, pagination.FromRequest(r))
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, page)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.Get(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, job)
}

func (h *Handler) CloseJob(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	job, err := h.service.Close(r.Context(), actor, chi.URLParam(r, "jobId"))
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, job)
}
