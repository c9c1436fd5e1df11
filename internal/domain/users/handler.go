package users

import (
	"encoding/json"
	"net/http"

	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/httpx"
	"pet-health-tracker/internal/platform/messages"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta /users (solo admin). Se asume RequireAuth en el router padre.
// Acá los errores de input son 400, no 422.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users", func(ur chi.Router) {
		ur.Use(middleware.RequireAdmin(svc.AdminUsername()))

		ur.Get("/", listUsersHandler(svc))
		ur.Post("/", createUserHandler(svc))
		ur.Get("/{username}", getUserHandler(svc))
		ur.Put("/{username}", updateUserHandler(svc))
		ur.Delete("/{username}", deactivateUserHandler(svc))
		ur.Post("/{username}/reset-password", resetPasswordHandler(svc))
	})
}

type userResponse struct {
	ID        string `json:"_id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

func toUserResponse(u User) userResponse {
	out := userResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedBy: u.CreatedBy,
	}
	if !u.CreatedAt.IsZero() {
		out.CreatedAt = u.CreatedAt.UTC().Format(dates.DateTimeLayout)
	}
	return out
}

// listUsersHandler godoc
// @Summary Listar usuarios
// @Tags users
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Router /api/users [get]
func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": out})
	}
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// createUserHandler godoc
// @Summary Crear usuario
// @Tags users
// @Accept json
// @Produce json
// @Param payload body createUserRequest true "Usuario"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /api/users [post]
func createUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := decodeBody(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}

		u, err := svc.Create(r.Context(), middleware.CurrentUsername(r.Context()), CreateInput(req))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteSuccess(w, http.StatusCreated, messages.Get("user_created", nil), map[string]any{
			"user": toUserResponse(u),
		})
	}
}

func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Get(r.Context(), chi.URLParam(r, "username"))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": toUserResponse(u)})
	}
}

type updateUserRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	IsActive *bool   `json:"is_active"`
}

// updateUserHandler godoc
// @Summary Actualizar usuario
// @Description full_name, email, is_active. Desactivar al admin devuelve 400.
// @Tags users
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param payload body updateUserRequest true "Campos a cambiar"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/users/{username} [put]
func updateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateUserRequest
		if err := decodeBody(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}

		patch := Patch{FullName: req.FullName, Email: req.Email, IsActive: req.IsActive}
		if _, err := svc.Update(r.Context(), middleware.CurrentUsername(r.Context()), chi.URLParam(r, "username"), patch); err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteSuccess(w, http.StatusOK, messages.Get("user_updated", nil), nil)
	}
}

func deactivateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Deactivate(r.Context(), middleware.CurrentUsername(r.Context()), chi.URLParam(r, "username")); err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteSuccess(w, http.StatusOK, messages.Get("user_deactivated", nil), nil)
	}
}

func resetPasswordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Password string `json:"password"`
		}
		if err := decodeBody(r, &req); err != nil {
			httpx.WriteError(w, err)
			return
		}

		err := svc.ResetPassword(r.Context(), middleware.CurrentUsername(r.Context()), chi.URLParam(r, "username"), req.Password)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		httpx.WriteSuccess(w, http.StatusOK, messages.Get("user_password_reset", nil), nil)
	}
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.BadRequest("Invalid input data")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.BadRequest("Invalid input data")
	}
	return nil
}
