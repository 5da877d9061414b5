package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/and161185/card-market/internal/convert"
	"github.com/and161185/card-market/internal/errs"
	"github.com/and161185/card-market/internal/service"
)

// Register creates a new user account. No token is issued.
func (s *Server) Register(c *fiber.Ctx) error {
	var req convert.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return reply(c, fiber.StatusBadRequest, msgBadRequest)
	}

	err := s.auth.Register(c.UserContext(), req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		return reply(c, fiber.StatusCreated, msgUserCreated)
	case errors.Is(err, service.ErrPasswordTooLong):
		return reply(c, fiber.StatusBadRequest, msgPasswordTooLong)
	case errors.Is(err, errs.ErrValidation):
		return reply(c, fiber.StatusBadRequest, msgFieldsRequired)
	case errors.Is(err, errs.ErrAlreadyExists):
		return reply(c, fiber.StatusBadRequest, msgEmailTaken)
	default:
		s.log.Error("register", zap.Error(err))
		return reply(c, fiber.StatusInternalServerError, msgServerError)
	}
}

// Login authenticates a user and returns a token plus the public profile.
func (s *Server) Login(c *fiber.Ctx) error {
	var req convert.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return reply(c, fiber.StatusBadRequest, msgBadRequest)
	}

	tok, u, err := s.auth.Login(c.UserContext(), req.Email, req.Password, c.IP())
	switch {
	case err == nil:
		return c.JSON(convert.ToLoginResponse(tok, u))
	case errors.Is(err, errs.ErrNotFound):
		return reply(c, fiber.StatusBadRequest, msgUserNotFound)
	case errors.Is(err, errs.ErrInvalidCredentials):
		return reply(c, fiber.StatusBadRequest, msgWrongPassword)
	case errors.Is(err, errs.ErrRateLimited):
		return reply(c, fiber.StatusTooManyRequests, msgTooManyAttempts)
	default:
		s.log.Error("login", zap.Error(err))
		return reply(c, fiber.StatusInternalServerError, msgServerError)
	}
}

// Profile greets the authenticated user.
func (s *Server) Profile(c *fiber.Ctx) error {
	id, ok := UserIDFrom(c)
	if !ok {
		return reply(c, fiber.StatusUnauthorized, msgAccessDenied)
	}
	return c.JSON(convert.Profile{Message: msgProfile, UserID: id.String()})
}
