package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/ports/storage"
)

type userRepo struct {
	mu     sync.RWMutex
	byName map[string]users.User
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byName: make(map[string]users.User),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.Username) == "" {
		return errors.New("username required")
	}
	if _, exists := r.byName[u.Username]; exists {
		return storage.ErrDuplicate
	}
	r.byName[u.Username] = u
	return nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byName[username]
	if !ok {
		return users.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) List(ctx context.Context) ([]users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.User, 0, len(r.byName))
	for _, u := range r.byName {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Username < out[j].Username
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *userRepo) Update(ctx context.Context, username string, patch users.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byName[username]
	if !ok {
		return storage.ErrNotFound
	}
	r.byName[username] = patch.Apply(u)
	return nil
}

func (r *userRepo) SetPasswordHash(ctx context.Context, username, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byName[username]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = hash
	r.byName[username] = u
	return nil
}
