package repository

import (
	"context"

	"github.com/and161185/card-market/internal/model"
	"github.com/gofrs/uuid/v5"
)

// CardRepository provides CRUD access to card listings.
type CardRepository interface {
	// List returns all cards, newest first.
	List(ctx context.Context) ([]model.Card, error)
	// Get returns a single card by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Card, error)
	// Create inserts a card and returns it with generated fields.
	Create(ctx context.Context, in model.CardInput) (*model.Card, error)
	// Update replaces the mutable fields of a card.
	Update(ctx context.Context, id uuid.UUID, in model.CardInput) (*model.Card, error)
	// Delete removes a card.
	Delete(ctx context.Context, id uuid.UUID) error
}
