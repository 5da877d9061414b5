// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/card-market/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to the credential store.
type UserRepository interface {
	// Create inserts a new user and fills its store-generated ID and CreatedAt.
	// A duplicate email yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Delete removes a user. Outstanding tokens stop working on next use.
	Delete(ctx context.Context, id uuid.UUID) error
}
