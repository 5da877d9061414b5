// Package crypto implements server-side password hashing and verification.
package crypto

import "golang.org/x/crypto/bcrypt"

const (
	// DefaultCost is the bcrypt work factor used for new hashes.
	DefaultCost = 10
	// MaxPasswordLen is the longest password bcrypt accepts, in bytes.
	MaxPasswordLen = 72
)

// HashPassword returns a salted bcrypt hash of password with the given work factor.
// Passwords over MaxPasswordLen bytes fail with bcrypt.ErrPasswordTooLong.
func HashPassword(password []byte, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, cost)
}

// VerifyPassword reports whether password matches the stored hash.
// A malformed hash verifies as false.
func VerifyPassword(password, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, password) == nil
}
