package middleware

import (
	"context"
	"net/http"
	"strings"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

// Scope es el contexto que los decoradores de acceso dejan resuelto para el handler.
type Scope struct {
	Username string
	PetID    string
	Record   any // solo con RequireRecordAccess
}

// PetScoped lo implementan los inputs validados que traen pet_id (query o body).
type PetScoped interface {
	ScopedPetID() string
}

type PetAccessValidator interface {
	ValidatePetAccess(ctx context.Context, petID, username string) error
}

// RecordResolver busca el registro, valida acceso y devuelve (registro, pet_id).
type RecordResolver[R any] func(ctx context.Context, recordID, username string) (R, string, error)

// WithInput guarda el input ya validado (body o query) para los siguientes eslabones.
func WithInput(ctx context.Context, in any) context.Context {
	return context.WithValue(ctx, inputKey, in)
}

func Input[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(inputKey).(T)
	return v, ok
}

func GetScope(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey).(Scope)
	return s, ok
}

func ScopedRecord[R any](ctx context.Context) (R, bool) {
	var zero R
	s, ok := GetScope(ctx)
	if !ok {
		return zero, false
	}
	rec, ok := s.Record.(R)
	return rec, ok
}

// RequirePetAccess toma pet_id del input validado y, si no hay, del query string crudo.
// Requiere RequireAuth antes en la cadena.
func RequirePetAccess(v PetAccessValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := CurrentUsername(r.Context())
			if username == "" {
				httpx.WriteError(w, apperr.Unauthorized("authentication required"))
				return
			}

			petID := ""
			if in, ok := r.Context().Value(inputKey).(PetScoped); ok {
				petID = in.ScopedPetID()
			}
			if strings.TrimSpace(petID) == "" {
				petID = r.URL.Query().Get("pet_id")
			}
			petID = strings.TrimSpace(petID)

			if err := v.ValidatePetAccess(r.Context(), petID, username); err != nil {
				httpx.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), scopeKey, Scope{Username: username, PetID: petID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRecordAccess lee el id del path ({id}) y resuelve el registro con resolve.
func RequireRecordAccess[R any](resolve RecordResolver[R]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := CurrentUsername(r.Context())
			if username == "" {
				httpx.WriteError(w, apperr.Unauthorized("authentication required"))
				return
			}

			rec, petID, err := resolve(r.Context(), chi.URLParam(r, "id"), username)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), scopeKey, Scope{Username: username, PetID: petID, Record: rec})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
