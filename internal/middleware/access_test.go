package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowList map[string]string // petID -> username permitido

func (a allowList) ValidatePetAccess(_ context.Context, petID, username string) error {
	if petID == "" {
		return apperr.BadRequest("pet_id is required")
	}
	if a[petID] != username {
		return apperr.Forbidden("no access to this pet")
	}
	return nil
}

type bodyInput struct{ PetID string }

func (b bodyInput) ScopedPetID() string { return b.PetID }

func withUser(r *http.Request, username string) *http.Request {
	return r.WithContext(WithClaims(r.Context(), auth.Claims{Username: username}))
}

func scopeEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := GetScope(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"user": s.Username, "pet": s.PetID, "record": s.Record})
	})
}

func TestRequirePetAccess_FromQuery(t *testing.T) {
	h := RequirePetAccess(allowList{"p1": "alice"})(scopeEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/?pet_id=p1", nil), "alice"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"alice","pet":"p1","record":null}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/?pet_id=p1", nil), "mallory"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"no access to this pet"}`, rec.Body.String())
}

func TestRequirePetAccess_ValidatedInputWins(t *testing.T) {
	h := RequirePetAccess(allowList{"p2": "alice"})(scopeEcho())

	req := withUser(httptest.NewRequest(http.MethodPost, "/?pet_id=p1", nil), "alice")
	req = req.WithContext(WithInput(req.Context(), bodyInput{PetID: "p2"}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pet":"p2"`)
}

func TestRequirePetAccess_Unauthenticated(t *testing.T) {
	h := RequirePetAccess(allowList{})(scopeEcho())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?pet_id=p1", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRecordAccess(t *testing.T) {
	type record struct{ ID, Note string }
	resolve := func(_ context.Context, id, username string) (record, string, error) {
		if id != "r1" {
			return record{}, "", apperr.NotFound("record not found")
		}
		if username != "alice" {
			return record{}, "", apperr.Forbidden("no access to this pet")
		}
		return record{ID: id, Note: "ok"}, "p1", nil
	}

	r := chi.NewRouter()
	r.With(RequireRecordAccess[record](resolve)).Put("/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		rec, ok := ScopedRecord[record](r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		s, _ := GetScope(r.Context())
		_, _ = w.Write([]byte(rec.Note + ":" + s.PetID))
	})

	cases := []struct {
		user, id string
		status   int
	}{
		{"alice", "r1", http.StatusOK},
		{"alice", "r2", http.StatusNotFound},
		{"bob", "r1", http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPut, "/records/"+tc.id, nil), tc.user))
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.user, tc.id)
		if tc.status == http.StatusOK {
			assert.Equal(t, "ok:p1", rec.Body.String())
		}
	}
}
