package middleware

import (
	"context"
	"net/http"
	"strings"

	"pet-health-tracker/internal/ports/auth"
)

type ctxKey string

const (
	claimsKey ctxKey = "claims"
	scopeKey  ctxKey = "scope"
	inputKey  ctxKey = "input"

	// AccessTokenCookie es la cookie que setea el login.
	AccessTokenCookie = "access_token"

	DebugUserHeader = "X-Debug-User"
)

// AuthContext:
// - Si verifier != nil: toma el token de "Authorization: Bearer" o de la cookie access_token,
//   lo verifica y setea claims.
// - Si verifier == nil => modo dev: si viene header X-Debug-User => setea claims.
// - Si no hay claims, el request sigue igual; RequireAuth decide el 401.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				if u := strings.TrimSpace(r.Header.Get(DebugUserHeader)); u != "" {
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), auth.Claims{Username: u})))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := RequestToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil || strings.TrimSpace(claims.Username) == "" {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// CurrentUsername devuelve "" si el request no está autenticado.
func CurrentUsername(ctx context.Context) string {
	c, ok := GetClaims(ctx)
	if !ok {
		return ""
	}
	return strings.TrimSpace(c.Username)
}

// RequestToken: primero Authorization, después cookie.
func RequestToken(r *http.Request) string {
	if t := bearerToken(r.Header.Get("Authorization")); t != "" {
		return t
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
