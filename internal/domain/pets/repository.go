package pets

import (
	"context"
	"io"
)

type Repository interface {
	Create(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	// ListAccessible: mascotas propias o compartidas con username, created_at desc.
	ListAccessible(ctx context.Context, username string) ([]Pet, error)
	Update(ctx context.Context, id string, patch Patch) error
	Delete(ctx context.Context, id string) error

	// AddShare/RemoveShare deben ser atómicos en el store (set-add / set-remove).
	AddShare(ctx context.Context, id, username string) error
	RemoveShare(ctx context.Context, id, username string) error
}

type PhotoStore interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Open(ctx context.Context, id string) (Photo, error)
	Delete(ctx context.Context, id string) error
}

// UserDirectory es lo único que pets necesita de users (para compartir).
type UserDirectory interface {
	IsActive(ctx context.Context, username string) (bool, error)
}
