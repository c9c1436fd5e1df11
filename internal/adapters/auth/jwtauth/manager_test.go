package jwtauth

import (
	"context"
	"testing"
	"time"

	"pet-health-tracker/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRevoker map[string]bool

func (f fakeRevoker) Revoke(_ context.Context, id string, _ time.Duration) error {
	f[id] = true
	return nil
}

func (f fakeRevoker) IsRevoked(_ context.Context, id string) (bool, error) { return f[id], nil }

func newManager(t *testing.T, rev auth.TokenRevoker) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: "test-secret", AccessTTL: time.Minute, RefreshTTL: time.Hour}, rev)
	require.NoError(t, err)
	return m
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(Config{AccessTTL: time.Minute, RefreshTTL: time.Hour}, nil)
	assert.Error(t, err)
	_, err = NewManager(Config{Secret: "s", RefreshTTL: time.Hour}, nil)
	assert.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	m := newManager(t, nil)
	ctx := context.Background()

	access, err := m.Issue("alice", auth.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, access.TokenID)

	claims, err := m.Verify(ctx, access.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, access.TokenID, claims.TokenID)
	assert.Equal(t, auth.AccessToken, claims.Type)
	assert.WithinDuration(t, access.ExpiresAt, claims.ExpiresAt, time.Second)

	refresh, err := m.Issue("alice", auth.RefreshToken)
	require.NoError(t, err)
	_, err = m.Verify(ctx, refresh.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken, "refresh token must not authenticate requests")

	_, err = m.Parse(ctx, refresh.Token, auth.RefreshToken)
	require.NoError(t, err)
}

func TestVerify_Rejects(t *testing.T) {
	m := newManager(t, nil)
	ctx := context.Background()

	_, err := m.Verify(ctx, "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	_, err = m.Verify(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	other, err := NewManager(Config{Secret: "other", AccessTTL: time.Minute, RefreshTTL: time.Hour}, nil)
	require.NoError(t, err)
	foreign, err := other.Issue("alice", auth.AccessToken)
	require.NoError(t, err)
	_, err = m.Verify(ctx, foreign.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	tok, err := m.Issue("alice", auth.AccessToken)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Verify(ctx, tok.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerify_Revoked(t *testing.T) {
	rev := fakeRevoker{}
	m := newManager(t, rev)
	ctx := context.Background()

	tok, err := m.Issue("alice", auth.AccessToken)
	require.NoError(t, err)
	_, err = m.Verify(ctx, tok.Token)
	require.NoError(t, err)

	require.NoError(t, rev.Revoke(ctx, tok.TokenID, time.Minute))
	_, err = m.Verify(ctx, tok.Token)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
}
