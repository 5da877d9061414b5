// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // for diagnostics
}

// User represents an account stored on the server. The password is never stored in plaintext.
type User struct {
	ID        uuid.UUID // generated by the store
	Username  string    // not unique
	Email     string    // unique
	PwdHash   []byte    // bcrypt(password), salt embedded
	CreatedAt time.Time
}

// PublicUser is the projection of a user that may leave the server.
type PublicUser struct {
	Username string
	Email    string
}

// Public returns the user's public projection.
func (u User) Public() PublicUser {
	return PublicUser{Username: u.Username, Email: u.Email}
}

// Card is a listing on the marketplace. Cards are not owned by users.
type Card struct {
	ID        uuid.UUID
	Name      string
	Category  string
	Price     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CardInput carries the mutable fields of a card.
type CardInput struct {
	Name     string
	Category string
	Price    float64
}
