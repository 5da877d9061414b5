// Package limiter defines interfaces and implementations for login rate limiting.
package limiter

import (
	"context"
	"time"
)

// Limiter controls login attempts and temporary lockouts.
// Attempts are keyed by (email, hashed client IP).
type Limiter interface {
	// Allow reports whether login is currently allowed and optional retry-after.
	Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
	// Success resets counters after a successful login.
	Success(ctx context.Context, email string, ipHash []byte) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
}

// Settings tune the lockout policy.
type Settings struct {
	Window   time.Duration // failures older than this are forgotten
	MaxFails int
	BlockFor time.Duration
}

// DefaultSettings: five failures within 15 minutes block for 15 minutes.
var DefaultSettings = Settings{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}

// Nop never blocks. Used when limiting is disabled.
type Nop struct{}

var _ Limiter = Nop{}

func (Nop) Allow(context.Context, string, []byte) (bool, time.Duration, error) { return true, 0, nil }
func (Nop) Success(context.Context, string, []byte) error                     { return nil }
func (Nop) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	return false, 0, nil
}
