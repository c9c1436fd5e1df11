package pets

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/dates"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/ports/storage"
)

const (
	msgInvalidInput   = "Invalid input data"
	msgNameRequired   = "name is required"
	msgInvalidBirth   = "birth_date must be YYYY-MM-DD, not in the future and at most 50 years ago"
	msgInvalidPhoto   = "photo must be an image"
	msgNothingToSave  = "no data to update"
	msgInvalidPetID   = "invalid pet_id format"
	msgPetNotFound    = "pet not found"
	msgNoAccess       = "no access"
	msgOwnerOnly      = "only the owner can perform this action"
	msgPhotoNotFound  = "photo not found"
	msgBodyTooLarge   = "request body too large"
	msgUsernameNeeded = "username is required"
	msgUserNotFound   = "user not found"
	msgSelfShare      = "cannot share a pet with yourself"
	msgAlreadyShared  = "access already granted to this user"
)

type Service struct {
	repo   Repository
	photos PhotoStore
	users  UserDirectory
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, photos PhotoStore, users UserDirectory, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		photos: photos,
		users:  users,
		log:    log.With(map[string]any{"component": "pets"}),
		now:    time.Now,
	}
}

// PhotoUpload es un archivo recibido por multipart.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type CreateInput struct {
	Name      string
	Breed     string
	Gender    string
	BirthDate string // YYYY-MM-DD opcional
	PhotoURL  string
	Photo     *PhotoUpload
}

func (s *Service) Create(ctx context.Context, username string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(username) == "" {
		return Pet{}, apperr.Unauthorized("authentication required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Pet{}, apperr.Unprocessable(msgNameRequired)
	}

	p := Pet{
		ID:         storage.NewID(),
		Name:       name,
		Breed:      strings.TrimSpace(in.Breed),
		Gender:     Gender(strings.TrimSpace(in.Gender)),
		PhotoURL:   strings.TrimSpace(in.PhotoURL),
		Owner:      username,
		SharedWith: []string{},
		CreatedAt:  s.now().UTC(),
		CreatedBy:  username,
	}

	if bd := strings.TrimSpace(in.BirthDate); bd != "" {
		t, err := dates.ParseBirthDate(bd, s.now())
		if err != nil {
			return Pet{}, apperr.Unprocessable(msgInvalidBirth)
		}
		p.BirthDate = &t
	}

	if in.Photo != nil {
		id, err := s.savePhoto(ctx, in.Photo)
		if err != nil {
			return Pet{}, err
		}
		p.PhotoFileID = id
		p.PhotoURL = ""
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if p.PhotoFileID != "" {
			s.deletePhoto(ctx, p.PhotoFileID)
		}
		return Pet{}, apperr.Internal(err)
	}
	return p, nil
}

// GetForUser resuelve una mascota para las rutas /api/pets/{id}:
// id inválido 400, inexistente 404, sin acceso 403 (o 403 si requireOwner y no es owner).
func (s *Service) GetForUser(ctx context.Context, id, username string, requireOwner bool) (Pet, error) {
	if !storage.ValidID(id) {
		return Pet{}, apperr.BadRequest(msgInvalidPetID)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Pet{}, apperr.NotFound(msgPetNotFound)
		}
		return Pet{}, apperr.Internal(err)
	}
	if requireOwner {
		if !p.IsOwner(username) {
			return Pet{}, apperr.Forbidden(msgOwnerOnly)
		}
		return p, nil
	}
	if !p.IsOwner(username) && !p.IsSharedWith(username) {
		return Pet{}, apperr.Forbidden(msgNoAccess)
	}
	return p, nil
}

func (s *Service) ListAccessible(ctx context.Context, username string) ([]Pet, error) {
	items, err := s.repo.ListAccessible(ctx, username)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}

type UpdateInput struct {
	Name      *string
	Breed     *string
	Gender    *string
	BirthDate *string // "" limpia la fecha
	PhotoURL  *string

	Photo       *PhotoUpload
	RemovePhoto bool
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.Breed == nil && in.Gender == nil && in.BirthDate == nil &&
		in.PhotoURL == nil && in.Photo == nil && !in.RemovePhoto
}

// Update asume que el llamador ya validó que username es el owner (GetForUser con requireOwner).
func (s *Service) Update(ctx context.Context, current Pet, in UpdateInput) (Pet, error) {
	if in.empty() {
		return Pet{}, apperr.Unprocessable(msgNothingToSave)
	}

	var patch Patch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, apperr.Unprocessable(msgNameRequired)
		}
		patch.Name = &name
	}
	if in.Breed != nil {
		v := strings.TrimSpace(*in.Breed)
		patch.Breed = &v
	}
	if in.Gender != nil {
		v := strings.TrimSpace(*in.Gender)
		patch.Gender = &v
	}
	if in.BirthDate != nil {
		if v := strings.TrimSpace(*in.BirthDate); v == "" {
			patch.ClearBirthDate = true
		} else {
			t, err := dates.ParseBirthDate(v, s.now())
			if err != nil {
				return Pet{}, apperr.Unprocessable(msgInvalidBirth)
			}
			patch.BirthDate = &t
		}
	}
	if in.PhotoURL != nil {
		v := strings.TrimSpace(*in.PhotoURL)
		patch.PhotoURL = &v
	}

	oldPhoto := current.PhotoFileID
	switch {
	case in.Photo != nil:
		id, err := s.savePhoto(ctx, in.Photo)
		if err != nil {
			return Pet{}, err
		}
		empty := ""
		patch.PhotoFileID = &id
		patch.PhotoURL = &empty
	case in.RemovePhoto:
		empty := ""
		patch.PhotoFileID = &empty
		patch.PhotoURL = &empty
	}

	if err := s.repo.Update(ctx, current.ID, patch); err != nil {
		if patch.PhotoFileID != nil && *patch.PhotoFileID != "" {
			s.deletePhoto(ctx, *patch.PhotoFileID)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return Pet{}, apperr.NotFound(msgPetNotFound)
		}
		return Pet{}, apperr.Internal(err)
	}

	// La foto anterior se borra recién cuando el update quedó persistido.
	if patch.PhotoFileID != nil && oldPhoto != "" && oldPhoto != *patch.PhotoFileID {
		s.deletePhoto(ctx, oldPhoto)
	}

	return patch.Apply(current), nil
}

func (s *Service) Delete(ctx context.Context, pet Pet) error {
	if err := s.repo.Delete(ctx, pet.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(msgPetNotFound)
		}
		return apperr.Internal(err)
	}
	if pet.PhotoFileID != "" {
		s.deletePhoto(ctx, pet.PhotoFileID)
	}
	return nil
}

// Share agrega username a shared_with. Solo el owner llega hasta acá.
func (s *Service) Share(ctx context.Context, pet Pet, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperr.Unprocessable(msgUsernameNeeded)
	}

	active, err := s.users.IsActive(ctx, username)
	if err != nil {
		return apperr.Internal(err)
	}
	if !active {
		return apperr.NotFound(msgUserNotFound)
	}
	if username == pet.Owner {
		return apperr.Unprocessable(msgSelfShare)
	}
	if pet.IsSharedWith(username) {
		return apperr.Unprocessable(msgAlreadyShared)
	}

	if err := s.repo.AddShare(ctx, pet.ID, username); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(msgPetNotFound)
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) Unshare(ctx context.Context, pet Pet, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperr.Unprocessable(msgUsernameNeeded)
	}
	if err := s.repo.RemoveShare(ctx, pet.ID, username); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(msgPetNotFound)
		}
		return apperr.Internal(err)
	}
	return nil
}

// Photo devuelve el blob de la foto. Acá un id mal formado es 422 (no 400).
func (s *Service) Photo(ctx context.Context, petID, username string) (Photo, error) {
	if !storage.ValidID(petID) {
		return Photo{}, apperr.Unprocessable(msgInvalidPetID)
	}
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Photo{}, apperr.NotFound(msgPetNotFound)
		}
		return Photo{}, apperr.Internal(err)
	}
	if !p.IsOwner(username) && !p.IsSharedWith(username) {
		return Photo{}, apperr.Forbidden(msgNoAccess)
	}
	if p.PhotoFileID == "" {
		return Photo{}, apperr.NotFound(msgPhotoNotFound)
	}

	ph, err := s.photos.Open(ctx, p.PhotoFileID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Photo{}, apperr.NotFound(msgPhotoNotFound)
		}
		return Photo{}, apperr.Internal(err)
	}
	if ph.ContentType == "" {
		ph.ContentType = "image/jpeg"
	}
	return ph, nil
}

func (s *Service) savePhoto(ctx context.Context, up *PhotoUpload) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(up.ContentType))
	if !strings.HasPrefix(ct, "image/") {
		return "", apperr.Unprocessable(msgInvalidPhoto)
	}
	id, err := s.photos.Save(ctx, up.Filename, ct, up.Body)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return id, nil
}

func (s *Service) deletePhoto(ctx context.Context, id string) {
	if err := s.photos.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("photo cleanup failed", map[string]any{"photo_id": id, "err": err})
	}
}
