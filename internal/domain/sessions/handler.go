package sessions

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/httpx"
	"pet-health-tracker/internal/platform/messages"
	"pet-health-tracker/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

const RefreshTokenCookie = "refresh_token"

type Options struct {
	CookieSecure bool
	// LoginLimiter se aplica solo a POST /auth/login (nil = sin límite).
	LoginLimiter func(http.Handler) http.Handler
}

// RegisterRoutes monta /auth. Login y refresh son públicos; logout y me exigen sesión.
func RegisterRoutes(r chi.Router, svc *Service, opts Options) {
	r.Route("/auth", func(ar chi.Router) {
		login := ar.With()
		if opts.LoginLimiter != nil {
			login = ar.With(opts.LoginLimiter)
		}
		login.Post("/login", loginHandler(svc, opts))
		ar.Post("/refresh", refreshHandler(svc, opts))

		ar.With(middleware.RequireAuth(svc.accounts)).Post("/logout", logoutHandler(svc, opts))
		ar.With(middleware.RequireAuth(svc.accounts)).Get("/me", meHandler(svc))
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Description Devuelve access y refresh token y además los setea como cookies httpOnly.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /api/auth/login [post]
func loginHandler(svc *Service, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if r.Body == nil || json.NewDecoder(r.Body).Decode(&req) != nil {
			httpx.WriteError(w, apperr.BadRequest(msgCredentialsRequired))
			return
		}

		sess, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		setTokenCookie(w, middleware.AccessTokenCookie, sess.Access, opts.CookieSecure)
		setTokenCookie(w, RefreshTokenCookie, sess.Refresh, opts.CookieSecure)

		httpx.WriteSuccess(w, http.StatusOK, messages.Get("login", nil), map[string]any{
			"access_token":  sess.Access.Token,
			"refresh_token": sess.Refresh.Token,
			"token_type":    "Bearer",
			"expires_at":    sess.Access.ExpiresAt.UTC().Format(time.RFC3339),
			"username":      sess.User.Username,
			"is_admin":      svc.accounts.IsAdmin(sess.User.Username),
		})
	}
}

// refreshHandler godoc
// @Summary Renovar access token
// @Description Toma el refresh token de la cookie o del body {"refresh_token": ...}.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /api/auth/refresh [post]
func refreshHandler(svc *Service, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := refreshTokenFrom(r)
		if token == "" {
			httpx.WriteError(w, apperr.Unauthorized(msgInvalidRefresh))
			return
		}

		access, err := svc.Refresh(r.Context(), token)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}

		setTokenCookie(w, middleware.AccessTokenCookie, access, opts.CookieSecure)
		httpx.WriteSuccess(w, http.StatusOK, messages.Get("refresh", nil), map[string]any{
			"access_token": access.Token,
			"token_type":   "Bearer",
			"expires_at":   access.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
}

func logoutHandler(svc *Service, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		if err := svc.Logout(r.Context(), claims, refreshTokenFrom(r)); err != nil {
			httpx.WriteError(w, err)
			return
		}

		clearCookie(w, middleware.AccessTokenCookie, opts.CookieSecure)
		clearCookie(w, RefreshTokenCookie, opts.CookieSecure)
		httpx.WriteSuccess(w, http.StatusOK, messages.Get("logout", nil), nil)
	}
}

func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, isAdmin, err := svc.Me(r.Context(), middleware.CurrentUsername(r.Context()))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"username":  u.Username,
			"full_name": u.FullName,
			"email":     u.Email,
			"is_admin":  isAdmin,
		})
	}
}

// refreshTokenFrom: cookie primero, después body JSON.
func refreshTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(RefreshTokenCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	if r.Body == nil {
		return ""
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.RefreshToken)
}

func setTokenCookie(w http.ResponseWriter, name string, tok auth.IssuedToken, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    tok.Token,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		MaxAge:   int(time.Until(tok.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
