package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-health-tracker/internal/ports/auth"

	"github.com/stretchr/testify/assert"
)

type tokenVerifier map[string]string

func (v tokenVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	u, ok := v[token]
	if !ok {
		return auth.Claims{}, errors.New("invalid token")
	}
	return auth.Claims{Username: u}, nil
}

type activeSet map[string]bool

func (a activeSet) IsActive(_ context.Context, username string) (bool, error) {
	return a[username], nil
}

func whoami() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(CurrentUsername(r.Context())))
	})
}

func TestAuthContext_BearerAndCookie(t *testing.T) {
	h := AuthContext(tokenVerifier{"t1": "alice", "t2": "bob"})(whoami())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "alice", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "t2"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "bob", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	req.Header.Set(DebugUserHeader, "root")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "", rec.Body.String())
}

func TestAuthContext_DevMode(t *testing.T) {
	h := AuthContext(nil)(whoami())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugUserHeader, "alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "alice", rec.Body.String())
}

func TestRequireAuthAndAdmin(t *testing.T) {
	chain := RequireAuth(activeSet{"admin": true, "alice": true})(RequireAdmin("admin")(whoami()))

	cases := map[string]int{
		"":      http.StatusUnauthorized,
		"ghost": http.StatusUnauthorized,
		"alice": http.StatusForbidden,
		"admin": http.StatusOK,
	}
	for user, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if user != "" {
			req = withUser(req, user)
		}
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, user)
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("bearer abc"))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("Bearer"))
}
