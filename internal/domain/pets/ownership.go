package pets

import (
	"context"

	"pet-health-tracker/internal/domain/access"
)

// PetAccess expone owner/shared_with para el validador de acceso.
// Se usa para evitar ciclos de imports (pets <-> access).
func (s *Service) PetAccess(ctx context.Context, petID string) (access.PetAccess, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return access.PetAccess{}, err
	}
	return access.PetAccess{Owner: p.Owner, SharedWith: p.SharedWith}, nil
}
