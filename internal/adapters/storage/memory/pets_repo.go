package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/ports/storage"
)

type petRepo struct {
	mu   sync.RWMutex
	byID map[string]pets.Pet
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID: make(map[string]pets.Pet),
	}
}

// clonePet evita que el caller mute SharedWith/BirthDate guardados.
func clonePet(p pets.Pet) pets.Pet {
	p.SharedWith = slices.Clone(p.SharedWith)
	if p.SharedWith == nil {
		p.SharedWith = []string{}
	}
	if p.BirthDate != nil {
		bd := *p.BirthDate
		p.BirthDate = &bd
	}
	return p
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return storage.ErrDuplicate
	}
	r.byID[p.ID] = clonePet(p)
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, storage.ErrNotFound
	}
	return clonePet(p), nil
}

func (r *petRepo) ListAccessible(ctx context.Context, username string) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if p.IsOwner(username) || p.IsSharedWith(username) {
			out = append(out, clonePet(p))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *petRepo) Update(ctx context.Context, id string, patch pets.Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.byID[id] = clonePet(patch.Apply(p))
	return nil
}

func (r *petRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *petRepo) AddShare(ctx context.Context, id, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	if !slices.Contains(p.SharedWith, username) {
		p.SharedWith = append(slices.Clone(p.SharedWith), username)
	}
	r.byID[id] = p
	return nil
}

func (r *petRepo) RemoveShare(ctx context.Context, id, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.SharedWith = slices.DeleteFunc(slices.Clone(p.SharedWith), func(u string) bool { return u == username })
	r.byID[id] = p
	return nil
}
