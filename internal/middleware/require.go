package middleware

import (
	"context"
	"net/http"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/httpx"
)

// UserStatus permite rechazar tokens de usuarios desactivados después del login.
type UserStatus interface {
	IsActive(ctx context.Context, username string) (bool, error)
}

// RequireAuth corta con 401 si no hay usuario autenticado (o si está inactivo).
// status puede ser nil: en ese caso solo se exigen claims.
func RequireAuth(status UserStatus) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := CurrentUsername(r.Context())
			if username == "" {
				httpx.WriteError(w, apperr.Unauthorized("authentication required"))
				return
			}
			if status != nil {
				active, err := status.IsActive(r.Context(), username)
				if err != nil {
					httpx.WriteError(w, apperr.Internal(err))
					return
				}
				if !active {
					httpx.WriteError(w, apperr.Unauthorized("user is inactive"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin asume RequireAuth antes en la cadena.
func RequireAdmin(adminUsername string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminUsername == "" || CurrentUsername(r.Context()) != adminUsername {
				httpx.WriteError(w, apperr.Forbidden("admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
