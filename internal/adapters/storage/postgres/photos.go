package postgres

import (
	"context"
	"io"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/ports/storage"
)

// maxPhotoBytes limita lo que se guarda en bytea.
const maxPhotoBytes = 10 << 20

type PhotoStore struct {
	db DBTX
}

func NewPhotoStore(db DBTX) *PhotoStore {
	return &PhotoStore{db: db}
}

func (s *PhotoStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPhotoBytes))
	if err != nil {
		return "", err
	}
	id := storage.NewID()
	_, err = s.db.Exec(ctx, `
		INSERT INTO pet_photos (id, filename, content_type, data) VALUES ($1,$2,$3,$4)
	`, id, filename, contentType, data)
	if err != nil {
		return "", mapErr(err)
	}
	return id, nil
}

func (s *PhotoStore) Open(ctx context.Context, id string) (pets.Photo, error) {
	p := pets.Photo{ID: id}
	err := s.db.QueryRow(ctx, `
		SELECT filename, content_type, data FROM pet_photos WHERE id = $1
	`, id).Scan(&p.Filename, &p.ContentType, &p.Data)
	if err != nil {
		return pets.Photo{}, mapErr(err)
	}
	return p, nil
}

func (s *PhotoStore) Delete(ctx context.Context, id string) error {
	return affected(s.db.Exec(ctx, `DELETE FROM pet_photos WHERE id = $1`, id))
}
