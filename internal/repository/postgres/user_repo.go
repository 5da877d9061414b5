package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/card-market/internal/errs"
	"github.com/and161185/card-market/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row. The id and created_at come from the database.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (username, email, pwd_hash)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	err := r.db.Pool.QueryRow(ctx, q, u.Username, u.Email, u.PwdHash).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `
SELECT id, username, email, pwd_hash, created_at
FROM users WHERE id=$1`
	return r.getOne(ctx, q, id)
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
SELECT id, username, email, pwd_hash, created_at
FROM users WHERE email=$1`
	return r.getOne(ctx, q, email)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	row := r.db.Pool.QueryRow(ctx, q, arg)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PwdHash, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// Delete removes a user by ID.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM users WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
