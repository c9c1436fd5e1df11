package users

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/ports/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byName map[string]User
}

func newTestRepo() *testRepo { return &testRepo{byName: map[string]User{}} }

func (r *testRepo) Create(_ context.Context, u User) error {
	if _, ok := r.byName[u.Username]; ok {
		return storage.ErrDuplicate
	}
	r.byName[u.Username] = u
	return nil
}

func (r *testRepo) GetByUsername(_ context.Context, username string) (User, error) {
	u, ok := r.byName[username]
	if !ok {
		return User{}, storage.ErrNotFound
	}
	return u, nil
}

func (r *testRepo) List(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byName))
	for _, u := range r.byName {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *testRepo) Update(_ context.Context, username string, p Patch) error {
	u, ok := r.byName[username]
	if !ok {
		return storage.ErrNotFound
	}
	r.byName[username] = p.Apply(u)
	return nil
}

func (r *testRepo) SetPasswordHash(_ context.Context, username, hash string) error {
	u, ok := r.byName[username]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = hash
	r.byName[username] = u
	return nil
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, "admin", nil)
	svc.cost = bcrypt.MinCost
	clock := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, repo
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	return ae.Status
}

func ptr[T any](v T) *T { return &v }

// -------------------------
// Tests
// -------------------------

func TestCreate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "admin", CreateInput{Username: " ", Password: "x"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	_, err = svc.Create(ctx, "admin", CreateInput{Username: "bob"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	u, err := svc.Create(ctx, "admin", CreateInput{Username: " bob ", Password: "secret", FullName: " Bob "})
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, "Bob", u.FullName)
	assert.True(t, u.IsActive)
	assert.Equal(t, "admin", u.CreatedBy)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.byName["bob"].PasswordHash), []byte("secret")))

	_, err = svc.Create(ctx, "admin", CreateInput{Username: "bob", Password: "other"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestPasswordTooLong(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	long := strings.Repeat("x", 73)

	_, err := svc.Create(ctx, "admin", CreateInput{Username: "carol", Password: long})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.NotContains(t, repo.byName, "carol")

	_, err = svc.Create(ctx, "admin", CreateInput{Username: "carol", Password: strings.Repeat("x", 72)})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, svc.ResetPassword(ctx, "admin", "carol", long)))
}

func TestList_NewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, "admin", CreateInput{Username: name, Password: "pw"})
		require.NoError(t, err)
	}
	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "c", items[0].Username)
	assert.Equal(t, "a", items[2].Username)
}

func TestUpdate_Rules(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "adminpw"))
	_, err := svc.Create(ctx, "admin", CreateInput{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "admin", "ghost", Patch{Email: ptr("x@y")})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = svc.Update(ctx, "admin", "bob", Patch{})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = svc.Update(ctx, "admin", "admin", Patch{IsActive: ptr(false)})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.True(t, repo.byName["admin"].IsActive)

	u, err := svc.Update(ctx, "admin", "bob", Patch{Email: ptr(" bob@example.com "), IsActive: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.False(t, repo.byName["bob"].IsActive)
}

func TestDeactivate(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, "admin", CreateInput{Username: "bob", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, statusOf(t, svc.Deactivate(ctx, "admin", "admin")))
	assert.Equal(t, http.StatusNotFound, statusOf(t, svc.Deactivate(ctx, "admin", "ghost")))

	require.NoError(t, svc.Deactivate(ctx, "admin", "bob"))
	assert.False(t, repo.byName["bob"].IsActive)

	active, err := svc.IsActive(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, active)
	active, err = svc.IsActive(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestResetPassword_AndAuthenticate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, "admin", CreateInput{Username: "bob", Password: "old"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, statusOf(t, svc.ResetPassword(ctx, "admin", "bob", "")))
	assert.Equal(t, http.StatusNotFound, statusOf(t, svc.ResetPassword(ctx, "admin", "ghost", "x")))

	require.NoError(t, svc.ResetPassword(ctx, "admin", "bob", "new"))

	_, err = svc.Authenticate(ctx, "bob", "old")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	u, err := svc.Authenticate(ctx, "bob", "new")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	_, err = svc.Authenticate(ctx, "ghost", "new")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.Deactivate(ctx, "admin", "bob"))
	_, err = svc.Authenticate(ctx, "bob", "new")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	assert.Error(t, svc.EnsureAdmin(ctx, ""))
	require.NoError(t, svc.EnsureAdmin(ctx, "pw"))
	first := repo.byName["admin"]
	assert.True(t, first.IsActive)

	require.NoError(t, svc.EnsureAdmin(ctx, "other"))
	assert.Equal(t, first.PasswordHash, repo.byName["admin"].PasswordHash)
	assert.True(t, svc.IsAdmin("admin"))
	assert.False(t, svc.IsAdmin("bob"))
}
