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

// CardRepo implements CardRepository using PostgreSQL.
type CardRepo struct{ db *DB }

// NewCardRepo constructs a card repository.
func NewCardRepo(db *DB) *CardRepo { return &CardRepo{db: db} }

const cardCols = `id, name, category, price, created_at, updated_at`

func scanCard(row pgx.Row) (*model.Card, error) {
	var c model.Card
	if err := row.Scan(&c.ID, &c.Name, &c.Category, &c.Price, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all cards, newest first.
func (r *CardRepo) List(ctx context.Context) ([]model.Card, error) {
	const q = `SELECT ` + cardCols + ` FROM cards ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	out := []model.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return out, nil
}

// Get returns a single card by id.
func (r *CardRepo) Get(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	const q = `SELECT ` + cardCols + ` FROM cards WHERE id=$1`
	c, err := scanCard(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("select card: %w", err)
	}
	return c, nil
}

// Create inserts a card row.
func (r *CardRepo) Create(ctx context.Context, in model.CardInput) (*model.Card, error) {
	const q = `
INSERT INTO cards (name, category, price)
VALUES ($1, $2, $3)
RETURNING ` + cardCols
	c, err := scanCard(r.db.Pool.QueryRow(ctx, q, in.Name, in.Category, in.Price))
	if err != nil {
		return nil, fmt.Errorf("insert card: %w", err)
	}
	return c, nil
}

// Update replaces name, category and price and bumps updated_at.
func (r *CardRepo) Update(ctx context.Context, id uuid.UUID, in model.CardInput) (*model.Card, error) {
	const q = `
UPDATE cards SET name=$2, category=$3, price=$4, updated_at=now()
WHERE id=$1
RETURNING ` + cardCols
	c, err := scanCard(r.db.Pool.QueryRow(ctx, q, id, in.Name, in.Category, in.Price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("update card: %w", err)
	}
	return c, nil
}

// Delete removes a card by id.
func (r *CardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM cards WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
