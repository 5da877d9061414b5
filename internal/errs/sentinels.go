// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials indicates a password that does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates a malformed token or a bad signature.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates a token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation")
)
