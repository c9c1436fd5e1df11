package introspect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		switch body["token"] {
		case "good":
			_ = json.NewEncoder(w).Encode(map[string]any{"active": true, "username": "alice", "jti": "j1", "exp": 1900000000})
		case "sub-only":
			_ = json.NewEncoder(w).Encode(map[string]any{"active": true, "sub": "bob"})
		case "anonymous":
			_ = json.NewEncoder(w).Encode(map[string]any{"active": true})
		case "boom":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"active": false})
		}
	}))
}

func TestVerifier(t *testing.T) {
	srv := newIdentityServer(t)
	defer srv.Close()

	v := NewVerifier(NewClient(Config{URL: srv.URL, APIKey: "k", Timeout: time.Second}))
	ctx := context.Background()

	c, err := v.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "alice", c.Username)
	assert.Equal(t, "j1", c.TokenID)
	assert.Equal(t, time.Unix(1900000000, 0).UTC(), c.ExpiresAt)

	c, err = v.Verify(ctx, "sub-only")
	require.NoError(t, err)
	assert.Equal(t, "bob", c.Username)

	_, err = v.Verify(ctx, "anonymous")
	assert.Error(t, err)

	_, err = v.Verify(ctx, "expired")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = v.Verify(ctx, "boom")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = v.Verify(ctx, "  ")
	assert.Error(t, err)
}

func TestVerifier_BadAPIKey(t *testing.T) {
	srv := newIdentityServer(t)
	defer srv.Close()

	v := NewVerifier(NewClient(Config{URL: srv.URL, APIKey: "wrong"}))
	_, err := v.Verify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifier_NotConfigured(t *testing.T) {
	_, err := NewVerifier(NewClient(Config{})).Verify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrNotConfigured)

	var nilVerifier *Verifier
	_, err = nilVerifier.Verify(context.Background(), "good")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
