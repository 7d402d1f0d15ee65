package notification

import (
	"log/slog"
	"net/http"

	"placement-service/internal/apperror"
	"placement-service/internal/auth"
	"placement-service/internal/httputil"
	"placement-service/internal/pagination"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/notifications", func(r chi.Router) {
		r.Get("/", h.ListNotifications)
		r.Patch("/{notificationId}/read", h.MarkRead)
	})
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		httputil.RespondWithServiceError(w, r, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	page, err := h.service.List(r.Context(), actor.UserID, pagination.FromRequest(r))
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, page)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		httputil.RespondWithServiceError(w, r, h.logger, apperror.Unauthorized("authentication required"))
		return
	}

	n, err := h.service.MarkRead(r.Context(), actor.UserID, chi.URLParam(r, "notificationId"))
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, n)
}
