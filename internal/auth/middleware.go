package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"placement-service/internal/apperror"
	"placement-service/internal/httputil"
	"placement-service/internal/identity"

	"github.com/google/uuid"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorResolver turns an authenticated user id into the caller's actor.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (*identity.Actor, error)
}

type Middleware struct {
	issuer *TokenIssuer
	actors ActorResolver
	logger *slog.Logger
}

func NewMiddleware(issuer *TokenIssuer, actors ActorResolver, logger *slog.Logger) *Middleware {
	return &Middleware{issuer: issuer, actors: actors, logger: logger}
}

// Authenticate validates the access token, resolves the actor and stores it
// in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			httputil.RespondWithError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := m.issuer.ValidateAccessToken(token)
		if err != nil {
			m.logger.WarnContext(r.Context(), "invalid token", "path", r.URL.Path, "error", err)
			httputil.RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		actor, err := m.actors.ResolveActor(r.Context(), userID)
		if err != nil {
			httputil.RespondWithServiceError(w, r, m.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole rejects callers whose role is not in roles.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				httputil.RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httputil.RespondWithError(w, http.StatusForbidden, apperror.Forbidden("insufficient role").Error())
		})
	}
}

func WithActor(ctx context.Context, actor *identity.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (*identity.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(*identity.Actor)
	return actor, ok && actor != nil
}

// tokenFromRequest prefers the Authorization header over the cookie.
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}
