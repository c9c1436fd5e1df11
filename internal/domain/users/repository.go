package users

import "context"

// Repository persiste usuarios por username (único).
// Create devuelve storage.ErrDuplicate si el username ya existe; el resto
// storage.ErrNotFound si no hay usuario.
type Repository interface {
	Create(ctx context.Context, u User) error
	GetByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error) // created_at desc
	Update(ctx context.Context, username string, patch Patch) error
	SetPasswordHash(ctx context.Context, username, hash string) error
}
