package memory

import (
	"context"
	"io"
	"slices"
	"sync"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/ports/storage"
)

type photoStore struct {
	mu    sync.RWMutex
	blobs map[string]pets.Photo
}

func NewPhotoStore() pets.PhotoStore {
	return &photoStore{
		blobs: make(map[string]pets.Photo),
	}
}

func (s *photoStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := storage.NewID()
	s.blobs[id] = pets.Photo{ID: id, Filename: filename, ContentType: contentType, Data: data}
	return id, nil
}

func (s *photoStore) Open(ctx context.Context, id string) (pets.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.blobs[id]
	if !ok {
		return pets.Photo{}, storage.ErrNotFound
	}
	p.Data = slices.Clone(p.Data)
	return p, nil
}

func (s *photoStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.blobs, id)
	return nil
}
