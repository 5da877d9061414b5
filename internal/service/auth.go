// Package service contains application services for authentication and cards.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/card-market/internal/crypto"
	"github.com/and161185/card-market/internal/errs"
	"github.com/and161185/card-market/internal/limiter"
	"github.com/and161185/card-market/internal/model"
	"github.com/and161185/card-market/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// AuthService defines registration, login and token-backed identity resolution.
type AuthService interface {
	// Register creates a new user with a bcrypt password hash. No token is issued.
	Register(ctx context.Context, username, email, password string) error
	// Login applies rate-limiting, checks credentials and issues a token.
	Login(ctx context.Context, email, password, ip string) (model.Tokens, model.PublicUser, error)
	// Authenticate verifies a raw token and confirms its user still exists.
	Authenticate(ctx context.Context, rawToken string) (uuid.UUID, error)
	// ResolveUser loads the user behind a verified token.
	ResolveUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
	Verify(raw string) (uuid.UUID, error)
}

// ErrPasswordTooLong rejects passwords bcrypt cannot hash. It matches errs.ErrValidation.
var ErrPasswordTooLong = fmt.Errorf("%w: password longer than %d bytes", errs.ErrValidation, pkgcrypto.MaxPasswordLen)

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens TokenService
	lim    limiter.Limiter
	cost   int
}

var _ AuthService = (*AuthServiceImpl)(nil)

// NewAuthService constructs AuthService with required dependencies. A nil limiter disables rate limiting.
func NewAuthService(users repository.UserRepository, tokens TokenService, lim limiter.Limiter) *AuthServiceImpl {
	if lim == nil {
		lim = limiter.Nop{}
	}
	return &AuthServiceImpl{users: users, tokens: tokens, lim: lim, cost: pkgcrypto.DefaultCost}
}

// Register validates input, rejects a taken email and stores the user.
// The unique index on email is authoritative: a concurrent duplicate that
// slips past the pre-check still surfaces as errs.ErrAlreadyExists.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: username, email and password are required", errs.ErrValidation)
	}
	if len(password) > pkgcrypto.MaxPasswordLen {
		return ErrPasswordTooLong
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return errs.ErrAlreadyExists
	case !errors.Is(err, errs.ErrNotFound):
		return err
	}

	hash, err := pkgcrypto.HashPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Username: username, Email: email, PwdHash: hash}
	return s.users.Create(ctx, u)
}

// Login authenticates with rate limiting by (email, ip).
// Unknown email yields errs.ErrNotFound, a wrong password errs.ErrInvalidCredentials.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password, ip string) (model.Tokens, model.PublicUser, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.PublicUser{}, err
	}
	if !allowed {
		return model.Tokens{}, model.PublicUser{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.Tokens{}, model.PublicUser{}, err
	}
	if err == nil && !pkgcrypto.VerifyPassword([]byte(password), u.PwdHash) {
		err = errs.ErrInvalidCredentials
	}
	if err != nil {
		// A lock tripped here applies from the next attempt; this one still
		// reports its own outcome.
		_, _, _ = s.lim.Failure(ctx, email, ipHash)
		return model.Tokens{}, model.PublicUser{}, err
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	access, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return model.Tokens{}, model.PublicUser{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, u.Public(), nil
}

// Authenticate returns errs.ErrInvalidToken or errs.ErrTokenExpired for a bad token,
// errs.ErrNotFound when the user is gone, and store errors unchanged.
// It performs exactly one user lookup once the token verifies.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, rawToken string) (uuid.UUID, error) {
	id, err := s.tokens.Verify(rawToken)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.ResolveUser(ctx, id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// ResolveUser loads a user by id.
func (s *AuthServiceImpl) ResolveUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if id == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	return s.users.GetByID(ctx, id)
}
