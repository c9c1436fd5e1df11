package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/ports/storage"

	"github.com/jackc/pgx/v5"
)

const petColumns = `id, name, breed, gender, birth_date, photo_file_id, photo_url, owner, shared_with, created_at, created_by`

type PetsRepo struct {
	db DBTX
}

func NewPetsRepo(db DBTX) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	shared := p.SharedWith
	if shared == nil {
		shared = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID,
		p.Name,
		p.Breed,
		string(p.Gender),
		p.BirthDate,
		p.PhotoFileID,
		p.PhotoURL,
		p.Owner,
		shared,
		p.CreatedAt,
		p.CreatedBy,
	)
	return mapErr(err)
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, storage.ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if err != nil {
		return pets.Pet{}, mapErr(err)
	}
	return p, nil
}

func (r *PetsRepo) ListAccessible(ctx context.Context, username string) ([]pets.Pet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE owner = $1 OR $1 = ANY(shared_with)
		ORDER BY created_at DESC, id DESC
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update arma el SET solo con los campos presentes en el patch.
func (r *PetsRepo) Update(ctx context.Context, id string, patch pets.Patch) error {
	var (
		sets []string
		args = []any{id}
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Breed != nil {
		set("breed", *patch.Breed)
	}
	if patch.Gender != nil {
		set("gender", *patch.Gender)
	}
	switch {
	case patch.BirthDate != nil:
		set("birth_date", *patch.BirthDate)
	case patch.ClearBirthDate:
		sets = append(sets, "birth_date = NULL")
	}
	if patch.PhotoFileID != nil {
		set("photo_file_id", *patch.PhotoFileID)
	}
	if patch.PhotoURL != nil {
		set("photo_url", *patch.PhotoURL)
	}
	if len(sets) == 0 {
		return nil
	}

	return affected(r.db.Exec(ctx, `UPDATE pets SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...))
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.Exec(ctx, `DELETE FROM pets WHERE id = $1`, id))
}

func (r *PetsRepo) AddShare(ctx context.Context, id, username string) error {
	return affected(r.db.Exec(ctx, `
		UPDATE pets
		SET shared_with = CASE WHEN $2 = ANY(shared_with) THEN shared_with ELSE array_append(shared_with, $2) END
		WHERE id = $1
	`, id, username))
}

func (r *PetsRepo) RemoveShare(ctx context.Context, id, username string) error {
	return affected(r.db.Exec(ctx, `
		UPDATE pets SET shared_with = array_remove(shared_with, $2) WHERE id = $1
	`, id, username))
}

func scanPet(row pgx.Row) (pets.Pet, error) {
	var (
		p      pets.Pet
		gender string
		bd     *time.Time
	)
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Breed,
		&gender,
		&bd,
		&p.PhotoFileID,
		&p.PhotoURL,
		&p.Owner,
		&p.SharedWith,
		&p.CreatedAt,
		&p.CreatedBy,
	); err != nil {
		return pets.Pet{}, err
	}
	p.Gender = pets.Gender(gender)
	if bd != nil {
		// DATE vuelve como medianoche; la normalizamos a UTC
		t := time.Date(bd.Year(), bd.Month(), bd.Day(), 0, 0, 0, 0, time.UTC)
		p.BirthDate = &t
	}
	if p.SharedWith == nil {
		p.SharedWith = []string{}
	}
	return p, nil
}
