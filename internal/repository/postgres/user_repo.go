package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/ecosort/smartbin/internal/errs"
	"github.com/ecosort/smartbin/internal/model"
)

// UserRepo implements repository.Users using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `
SELECT id, email, name, credits, bottles_submitted, total_earned, created_at
FROM users WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Credits, &u.BottlesSubmitted, &u.TotalEarned, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Summary returns the top users ordered by lifetime earnings.
func (r *UserRepo) Summary(ctx context.Context, limit int) ([]model.User, error) {
	const q = `
SELECT id, email, name, credits, bottles_submitted, total_earned, created_at
FROM users
ORDER BY total_earned DESC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err = rows.Scan(&u.ID, &u.Email, &u.Name, &u.Credits, &u.BottlesSubmitted, &u.TotalEarned, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
