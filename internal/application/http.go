package application

import (
	"log/slog"
	"net/http"

	"placement-service/internal/auth"
	"placement-service/internal/httputil"
	"placement-service/internal/identity"
	"placement-service/internal/pagination"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service      *Service
	validate     *validator.Validate
	logger       *slog.Logger
	applyLimiter func(http.Handler) http.Handler
}

// NewHandler builds the application routes. applyLimiter wraps the apply
// endpoint; nil leaves it unlimited.
func NewHandler(service *Service, logger *slog.Logger, applyLimiter func(http.Handler) http.Handler) *Handler {
	if applyLimiter == nil {
		applyLimiter = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		service:      service,
		validate:     httputil.NewValidator(),
		logger:       logger,
		applyLimiter: applyLimiter,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/applications", func(r chi.Router) {
		r.With(auth.RequireRole(identity.RoleStudent), h.applyLimiter).Post("/", h.Apply)
		r.Get("/", h.ListApplications)
		r.Get("/{applicationId}", h.GetApplication)
		r.With(auth.RequireRole(identity.RoleCompany, identity.RoleAdmin)).Patch("/{applicationId}/status", h.UpdateStatus)
	})
}

func (h *Handler) actor(r *http.Request) (Actor, error) {
	a, _ := auth.ActorFromContext(r.Context())
	return ActorFrom(a)
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	var req ApplyRequest
	if err := httputil.DecodeJSON(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	id, err := h.service.Apply(r.Context(), actor, req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, ApplyResponse{
		ID:      id,
		Message: "Application submitted successfully",
	})
}

func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	page, err := h.service.List(r.Context(), actor, ListQuery{
		Page:  pagination.FromRequest(r),
		JobID: r.URL.Query().Get("jobId"),
	})
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, page)
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	app, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "applicationId"))
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, app)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	var req UpdateStatusRequest
	if err := httputil.DecodeJSON(r, h.validate, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	app, err := h.service.UpdateStatus(r.Context(), actor, chi.URLParam(r, "applicationId"), req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, app)
}
