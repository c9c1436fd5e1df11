package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pet-health-tracker/internal/domain/records"

	"github.com/jackc/pgx/v5"
)

const recordColumns = `id, pet_id, date_time, fields, comment, username`

// RecordsRepo guarda los 8 tipos en health_records, discriminados por collection.
type RecordsRepo struct {
	db DBTX
}

func NewRecordsRepo(db DBTX) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func collectionOf(kind records.Kind) (string, error) {
	spec, ok := records.Lookup(string(kind))
	if !ok {
		return "", fmt.Errorf("postgres: unknown record kind %q", kind)
	}
	return spec.Collection, nil
}

func (r *RecordsRepo) Create(ctx context.Context, rec records.Record) error {
	coll, err := collectionOf(rec.Kind)
	if err != nil {
		return err
	}
	fields, err := marshalFields(rec.Fields)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO health_records (id, collection, pet_id, date_time, fields, comment, username)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, rec.ID, coll, rec.PetID, rec.DateTime.UTC(), fields, rec.Comment, rec.Username)
	return mapErr(err)
}

func (r *RecordsRepo) GetByID(ctx context.Context, kind records.Kind, id string) (records.Record, error) {
	coll, err := collectionOf(kind)
	if err != nil {
		return records.Record{}, err
	}
	row := r.db.QueryRow(ctx, `
		SELECT `+recordColumns+` FROM health_records WHERE collection = $1 AND id = $2
	`, coll, id)
	rec, err := scanRecord(row, kind)
	if err != nil {
		return records.Record{}, mapErr(err)
	}
	return rec, nil
}

func (r *RecordsRepo) ListByPet(ctx context.Context, kind records.Kind, petID string, offset, limit int) ([]records.Record, error) {
	coll, err := collectionOf(kind)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + recordColumns + `
		FROM health_records
		WHERE collection = $1 AND pet_id = $2
		ORDER BY date_time DESC, id DESC
		OFFSET $3`
	args := []any{coll, petID, max(offset, 0)}
	if limit > 0 {
		query += ` LIMIT $4`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RecordsRepo) CountByPet(ctx context.Context, kind records.Kind, petID string) (int, error) {
	coll, err := collectionOf(kind)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRow(ctx, `
		SELECT count(*) FROM health_records WHERE collection = $1 AND pet_id = $2
	`, coll, petID).Scan(&n)
	return n, err
}

// Update: fields se actualiza con jsonb (|| para set, - para unset).
func (r *RecordsRepo) Update(ctx context.Context, kind records.Kind, id string, patch records.Patch) error {
	coll, err := collectionOf(kind)
	if err != nil {
		return err
	}

	var (
		sets []string
		args = []any{coll, id}
	)
	set := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if patch.DateTime != nil {
		set("date_time = $%d", patch.DateTime.UTC())
	}
	if patch.Comment != nil {
		set("comment = $%d", *patch.Comment)
	}
	if len(patch.Set) > 0 || len(patch.Unset) > 0 {
		setJSON, err := marshalFields(patch.Set)
		if err != nil {
			return err
		}
		unset := patch.Unset
		if unset == nil {
			unset = []string{}
		}
		args = append(args, setJSON, unset)
		sets = append(sets, fmt.Sprintf("fields = (fields || $%d::jsonb) - $%d::text[]", len(args)-1, len(args)))
	}
	if len(sets) == 0 {
		return nil
	}

	return affected(r.db.Exec(ctx,
		`UPDATE health_records SET `+strings.Join(sets, ", ")+` WHERE collection = $1 AND id = $2`, args...))
}

func (r *RecordsRepo) Delete(ctx context.Context, kind records.Kind, id string) error {
	coll, err := collectionOf(kind)
	if err != nil {
		return err
	}
	return affected(r.db.Exec(ctx, `DELETE FROM health_records WHERE collection = $1 AND id = $2`, coll, id))
}

func marshalFields(fields map[string]any) ([]byte, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal fields: %w", err)
	}
	return b, nil
}

func scanRecord(row pgx.Row, kind records.Kind) (records.Record, error) {
	rec := records.Record{Kind: kind}
	var raw []byte
	if err := row.Scan(&rec.ID, &rec.PetID, &rec.DateTime, &raw, &rec.Comment, &rec.Username); err != nil {
		return records.Record{}, err
	}
	rec.DateTime = rec.DateTime.UTC()

	rec.Fields = map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Fields); err != nil {
			return records.Record{}, fmt.Errorf("postgres: decode fields: %w", err)
		}
	}
	return rec, nil
}
