package pets

import "time"

// Gender de la mascota. Libre, pero la UI ofrece estos valores.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// Pet representa el perfil de una mascota.
// Owner no cambia después de crearla y SharedWith nunca lo incluye.
type Pet struct {
	ID    string
	Name  string
	Breed string

	BirthDate *time.Time
	Gender    Gender

	// Foto: archivo propio (PhotoFileID, servido por /api/pets/{id}/photo)
	// o una URL externa.
	PhotoFileID string
	PhotoURL    string

	Owner      string
	SharedWith []string

	CreatedAt time.Time
	CreatedBy string
}

func (p Pet) IsOwner(username string) bool {
	return username != "" && p.Owner == username
}

func (p Pet) IsSharedWith(username string) bool {
	for _, u := range p.SharedWith {
		if u == username {
			return true
		}
	}
	return false
}

// Patch: nil = no tocar. Clear* fuerza el borrado del campo.
type Patch struct {
	Name        *string
	Breed       *string
	Gender      *string
	BirthDate   *time.Time
	PhotoFileID *string
	PhotoURL    *string

	ClearBirthDate bool
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Breed == nil && p.Gender == nil && p.BirthDate == nil &&
		p.PhotoFileID == nil && p.PhotoURL == nil && !p.ClearBirthDate
}

// Apply se usa en los repos que no pueden hacer un update parcial nativo (memory).
func (p Patch) Apply(pet Pet) Pet {
	if p.Name != nil {
		pet.Name = *p.Name
	}
	if p.Breed != nil {
		pet.Breed = *p.Breed
	}
	if p.Gender != nil {
		pet.Gender = Gender(*p.Gender)
	}
	if p.ClearBirthDate {
		pet.BirthDate = nil
	}
	if p.BirthDate != nil {
		bd := *p.BirthDate
		pet.BirthDate = &bd
	}
	if p.PhotoFileID != nil {
		pet.PhotoFileID = *p.PhotoFileID
	}
	if p.PhotoURL != nil {
		pet.PhotoURL = *p.PhotoURL
	}
	return pet
}

// Photo es el blob de la foto tal como lo devuelve un PhotoStore.
type Photo struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
}
