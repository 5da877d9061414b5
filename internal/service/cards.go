package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/card-market/internal/errs"
	"github.com/and161185/card-market/internal/model"
	"github.com/and161185/card-market/internal/repository"
)

// CardService defines CRUD over card listings.
type CardService interface {
	// List returns all cards, newest first.
	List(ctx context.Context) ([]model.Card, error)
	// Get returns a single card by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Card, error)
	// Create validates and stores a new card.
	Create(ctx context.Context, in model.CardInput) (*model.Card, error)
	// Update validates and replaces a card's fields.
	Update(ctx context.Context, id uuid.UUID, in model.CardInput) (*model.Card, error)
	// Delete removes a card.
	Delete(ctx context.Context, id uuid.UUID) error
}

type CardServiceImpl struct {
	repo repository.CardRepository
}

var _ CardService = (*CardServiceImpl)(nil)

// NewCardService constructs CardService.
func NewCardService(repo repository.CardRepository) *CardServiceImpl {
	return &CardServiceImpl{repo: repo}
}

// ValidateCard checks required fields. Price must be a finite non-negative number.
func ValidateCard(in model.CardInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: empty name", errs.ErrValidation)
	case strings.TrimSpace(in.Category) == "":
		return fmt.Errorf("%w: empty category", errs.ErrValidation)
	case math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price < 0:
		return fmt.Errorf("%w: bad price", errs.ErrValidation)
	}
	return nil
}

func (s *CardServiceImpl) List(ctx context.Context) ([]model.Card, error) {
	return s.repo.List(ctx)
}

func (s *CardServiceImpl) Get(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	if id == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *CardServiceImpl) Create(ctx context.Context, in model.CardInput) (*model.Card, error) {
	if err := ValidateCard(in); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, in)
}

func (s *CardServiceImpl) Update(ctx context.Context, id uuid.UUID, in model.CardInput) (*model.Card, error) {
	if id == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	if err := ValidateCard(in); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, in)
}

func (s *CardServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return errs.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}
