// Package token issues and verifies the HS256 bearer tokens handed out at login.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/card-market/internal/errs"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = time.Hour

// Claims is the token payload: {id, iat, exp}.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with a shared secret.
type Service struct {
	signKey []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewService constructs a token service. A non-positive ttl falls back to DefaultTTL.
func NewService(signKey []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{signKey: signKey, ttl: ttl, now: time.Now}
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue creates a signed token for userID expiring TTL from now.
func (s *Service) Issue(userID uuid.UUID) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the embedded user id.
// It fails with errs.ErrTokenExpired past expiry and errs.ErrInvalidToken otherwise.
func (s *Service) Verify(raw string) (uuid.UUID, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, errs.ErrTokenExpired
		}
		return uuid.Nil, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}

	id, err := uuid.FromString(claims.UserID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: bad id claim", errs.ErrInvalidToken)
	}
	return id, nil
}
