// Package access decide si un usuario puede leer/escribir los datos de una mascota.
//
// No importa pets ni records: recibe lo que necesita a través de PetSource y
// RecordSource para evitar ciclos (pets/records -> access -> pets/records).
package access

import (
	"context"
	"errors"
	"strings"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/ports/storage"
)

const (
	msgPetIDRequired  = "pet_id is required"
	msgInvalidPetID   = "invalid pet_id format"
	msgNoPetAccess    = "no access to this pet"
	msgInvalidRecord  = "invalid record_id format"
	msgRecordNotFound = "record not found"
	msgRecordNoPet    = "invalid record"
)

// PetAccess es la vista mínima de una mascota necesaria para autorizar.
type PetAccess struct {
	Owner      string
	SharedWith []string
}

// Allows: owner o usuario en shared_with.
func (p PetAccess) Allows(username string) bool {
	if username == "" {
		return false
	}
	if p.Owner == username {
		return true
	}
	for _, u := range p.SharedWith {
		if u == username {
			return true
		}
	}
	return false
}

// PetSource devuelve storage.ErrNotFound si la mascota no existe.
type PetSource interface {
	PetAccess(ctx context.Context, petID string) (PetAccess, error)
}

// RecordSource busca un registro por colección e id y devuelve también su pet_id.
// Debe devolver storage.ErrNotFound si no existe.
type RecordSource[R any] interface {
	FindRecord(ctx context.Context, collection, recordID string) (R, string, error)
}

type Validator struct {
	pets PetSource
}

func NewValidator(pets PetSource) *Validator {
	return &Validator{pets: pets}
}

// ValidatePetAccess no distingue "no existe" de "sin acceso": ambos son 403,
// para no revelar la existencia de mascotas ajenas.
func (v *Validator) ValidatePetAccess(ctx context.Context, petID, username string) error {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return apperr.BadRequest(msgPetIDRequired)
	}
	if !storage.ValidID(petID) {
		return apperr.BadRequest(msgInvalidPetID)
	}

	pa, err := v.pets.PetAccess(ctx, petID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Forbidden(msgNoPetAccess)
		}
		return apperr.Internal(err)
	}
	if !pa.Allows(username) {
		return apperr.Forbidden(msgNoPetAccess)
	}
	return nil
}

// GetRecordAndValidateAccess: a diferencia de las mascotas, acá el 404 va antes que el 403.
func GetRecordAndValidateAccess[R any](
	ctx context.Context,
	v *Validator,
	src RecordSource[R],
	collection, recordID, username string,
) (R, string, error) {
	var zero R

	recordID = strings.TrimSpace(recordID)
	if !storage.ValidID(recordID) {
		return zero, "", apperr.BadRequest(msgInvalidRecord)
	}

	rec, petID, err := src.FindRecord(ctx, collection, recordID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return zero, "", apperr.NotFound(msgRecordNotFound)
		}
		return zero, "", apperr.Internal(err)
	}
	if strings.TrimSpace(petID) == "" {
		return zero, "", apperr.BadRequest(msgRecordNoPet)
	}

	if err := v.ValidatePetAccess(ctx, petID, username); err != nil {
		return zero, "", err
	}
	return rec, petID, nil
}
