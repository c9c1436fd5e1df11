package records

import "context"

// Repository guarda cada tipo de registro en su propia colección (KindSpec.Collection).
// GetByID/Update/Delete devuelven storage.ErrNotFound si el id no existe en esa colección.
type Repository interface {
	Create(ctx context.Context, r Record) error
	GetByID(ctx context.Context, kind Kind, id string) (Record, error)
	// ListByPet ordena por date_time desc; limit <= 0 devuelve todo desde offset.
	ListByPet(ctx context.Context, kind Kind, petID string, offset, limit int) ([]Record, error)
	CountByPet(ctx context.Context, kind Kind, petID string) (int, error)
	Update(ctx context.Context, kind Kind, id string, patch Patch) error
	Delete(ctx context.Context, kind Kind, id string) error
}
