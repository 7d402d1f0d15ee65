package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"placement-service/internal/apperror"

	"github.com/go-playground/validator/v10"
)

type errorResponse struct {
	Message string           `json:"message"`
	Issues  []apperror.Issue `json:"issues,omitempty"`
}

// RespondWithError writes an error response in JSON format
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, errorResponse{Message: message})
}

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// RespondWithServiceError maps an error kind from apperror to its status code.
// Unknown errors are logged and reported as a generic 500.
func RespondWithServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var validationErr *apperror.ValidationError
	switch {
	case errors.As(err, &validationErr):
		RespondWithJSON(w, http.StatusBadRequest, errorResponse{Message: "validation failed", Issues: validationErr.Issues})
	case errors.Is(err, apperror.ErrUnauthorized):
		RespondWithError(w, http.StatusUnauthorized, apperror.Message(err))
	case errors.Is(err, apperror.ErrForbidden):
		logger.InfoContext(r.Context(), "forbidden", "path", r.URL.Path, "error", err)
		RespondWithError(w, http.StatusForbidden, apperror.Message(err))
	case errors.Is(err, apperror.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, apperror.Message(err))
	case errors.Is(err, apperror.ErrConflict):
		RespondWithError(w, http.StatusConflict, apperror.Message(err))
	case errors.Is(err, apperror.ErrInvalidReference),
		errors.Is(err, apperror.ErrInvalidState),
		errors.Is(err, apperror.ErrValidationFailed):
		RespondWithError(w, http.StatusBadRequest, apperror.Message(err))
	default:
		logger.ErrorContext(r.Context(), "internal error", "path", r.URL.Path, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// DecodeJSON decodes the request body into dst and runs struct validation.
// Both failures come back as an apperror.ValidationError.
func DecodeJSON(r *http.Request, validate *validator.Validate, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.Invalid("body", "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return ValidationError(err)
	}
	return nil
}

// ValidationError converts validator output into an issue list.
func ValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Invalid("body", err.Error())
	}
	issues := make([]apperror.Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, apperror.Issue{
			Field:   lowerFirst(fe.Field()),
			Message: describe(fe),
		})
	}
	return &apperror.ValidationError{Issues: issues}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid id"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
