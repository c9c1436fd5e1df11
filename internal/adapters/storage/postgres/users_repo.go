package postgres

import (
	"context"
	"fmt"
	"strings"

	"pet-health-tracker/internal/domain/users"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, password_hash, full_name, email, is_active, created_at, created_by`

type UsersRepo struct {
	db DBTX
}

func NewUsersRepo(db DBTX) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, u.ID, u.Username, u.PasswordHash, u.FullName, u.Email, u.IsActive, u.CreatedAt, u.CreatedBy)
	return mapErr(err)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return users.User{}, mapErr(err)
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, username ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UsersRepo) Update(ctx context.Context, username string, patch users.Patch) error {
	var (
		sets []string
		args = []any{username}
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.FullName != nil {
		set("full_name", *patch.FullName)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.IsActive != nil {
		set("is_active", *patch.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	return affected(r.db.Exec(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE username = $1`, args...))
}

func (r *UsersRepo) SetPasswordHash(ctx context.Context, username, hash string) error {
	return affected(r.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE username = $1`, username, hash))
}

func scanUser(row pgx.Row) (users.User, error) {
	var u users.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.IsActive, &u.CreatedAt, &u.CreatedBy)
	return u, err
}
