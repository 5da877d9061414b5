// Package convert maps domain models to and from the JSON shapes served by the HTTP API.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/card-market/internal/errs"
	model "github.com/and161185/card-market/internal/model"
)

// --- messages ---

// Message is the body of every error and of plain confirmations.
type Message struct {
	Message string `json:"message"`
}

// --- users ---

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// User is the public projection of an account. It never carries the password hash.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Profile is returned by the protected profile route.
type Profile struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// ToUser converts a domain public user.
func ToUser(u model.PublicUser) User {
	return User{Username: u.Username, Email: u.Email}
}

// ToLoginResponse builds the login body.
func ToLoginResponse(t model.Tokens, u model.PublicUser) LoginResponse {
	return LoginResponse{Token: t.AccessToken, User: ToUser(u)}
}

// --- cards ---

// Card is the wire shape of a card. Field names follow the document-store
// convention the frontend expects (_id, createdAt, updatedAt).
type Card struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToCard converts a domain card.
func ToCard(c model.Card) Card {
	return Card{
		ID:        c.ID.String(),
		Name:      c.Name,
		Category:  c.Category,
		Price:     c.Price,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

// ToCards converts a list of cards. The result is never nil so it encodes as [].
func ToCards(cs []model.Card) []Card {
	out := make([]Card, 0, len(cs))
	for _, c := range cs {
		out = append(out, ToCard(c))
	}
	return out
}

// Price accepts a JSON number or a numeric string ("12.5").
type Price float64

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return fmt.Errorf("%w: empty price", errs.ErrValidation)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%w: price %q", errs.ErrValidation, s)
		}
		*p = Price(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*p = Price(f)
	return nil
}

// CardRequest is the body of POST and PUT /api/cards. Pointers distinguish
// a missing field from a zero value.
type CardRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Price    *Price  `json:"price"`
}

// ToInput checks presence of every field and returns the domain input.
func (r CardRequest) ToInput() (model.CardInput, error) {
	if r.Name == nil || r.Category == nil || r.Price == nil {
		return model.CardInput{}, fmt.Errorf("%w: name, category and price are required", errs.ErrValidation)
	}
	return model.CardInput{
		Name:     *r.Name,
		Category: *r.Category,
		Price:    float64(*r.Price),
	}, nil
}
