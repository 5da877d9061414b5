package limiter

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PG is a PostgreSQL-backed limiter implementation with sliding window and lockout.
type PG struct {
	pool     Querier
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

var _ Limiter = (*PG)(nil)

// Querier is the subset of a pgx pool the limiter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed limiter. Zero fields in s fall back to DefaultSettings.
func NewPG(q Querier, s Settings) *PG {
	if s.Window <= 0 {
		s.Window = DefaultSettings.Window
	}
	if s.MaxFails <= 0 {
		s.MaxFails = DefaultSettings.MaxFails
	}
	if s.BlockFor <= 0 {
		s.BlockFor = DefaultSettings.BlockFor
	}
	return &PG{pool: q, window: s.Window, maxFails: s.MaxFails, blockFor: s.BlockFor, now: time.Now}
}

// HashIP returns a stable hash for an IP string to avoid storing raw addresses.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (l *PG) Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM login_attempts WHERE email=$1 AND ip_hash=$2`
	var blockedUntil time.Time
	err := l.pool.QueryRow(ctx, q, email, ipHash).Scan(&blockedUntil)
	switch {
	case err == nil:
		if now := l.now(); blockedUntil.After(now) {
			return false, blockedUntil.Sub(now), nil
		}
		return true, 0, nil
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	default:
		return false, 0, fmt.Errorf("limiter allow: %w", err)
	}
}

// Success resets counters for (email, ip).
func (l *PG) Success(ctx context.Context, email string, ipHash []byte) error {
	const q = `
INSERT INTO login_attempts (email, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,0,'epoch',now())
ON CONFLICT (email, ip_hash)
DO UPDATE SET fail_count=0, blocked_until='epoch', updated_at=now()`
	if _, err := l.pool.Exec(ctx, q, email, ipHash); err != nil {
		return fmt.Errorf("limiter success: %w", err)
	}
	return nil
}

// Failure records a failed attempt; may set a block until a future time.
// The counter is bumped in a single upsert so concurrent failures are all counted.
func (l *PG) Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO login_attempts (email, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1,$2,1,'epoch',now())
ON CONFLICT (email, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN EXCLUDED.updated_at - login_attempts.updated_at > $3::interval THEN 1 ELSE login_attempts.fail_count + 1 END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.pool.QueryRow(ctx, q, email, ipHash, l.window).Scan(&fails); err != nil {
		return false, 0, fmt.Errorf("limiter failure: %w", err)
	}
	if fails < l.maxFails {
		return false, 0, nil
	}

	blockUntil := l.now().Add(l.blockFor)
	const upd = `UPDATE login_attempts SET blocked_until=$3 WHERE email=$1 AND ip_hash=$2`
	if _, err := l.pool.Exec(ctx, upd, email, ipHash, blockUntil); err != nil {
		return false, 0, fmt.Errorf("limiter block: %w", err)
	}
	return true, l.blockFor, nil
}
