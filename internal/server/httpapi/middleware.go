package httpapi

import (
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"github.com/and161185/card-market/internal/errs"
	"github.com/and161185/card-market/internal/service"
)

// RequestLogger logs one line per request with metadata only.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		code := c.Response().StatusCode()
		if err != nil {
			// the error handler has not written the response yet
			code = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
		}

		// никаких пейлоадов, только метаданные
		log.Info("http",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", c.IP()),
		)
		return err
	}
}

// Recover turns a panic in a downstream handler into a 500 and logs the stack.
func Recover(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Path()),
				)
				err = reply(c, fiber.StatusInternalServerError, msgServerError)
			}
		}()
		return c.Next()
	}
}

// Auth rejects requests without a valid token for an existing user.
// On success the user id is available through UserIDFrom.
func Auth(auth service.AuthService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := tokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return reply(c, fiber.StatusUnauthorized, msgAccessDenied)
		}

		id, err := auth.Authenticate(c.UserContext(), raw)
		switch {
		case err == nil:
		case errors.Is(err, errs.ErrInvalidToken), errors.Is(err, errs.ErrTokenExpired):
			return reply(c, fiber.StatusUnauthorized, msgInvalidToken)
		case errors.Is(err, errs.ErrNotFound):
			return reply(c, fiber.StatusUnauthorized, msgUserNotFound)
		default:
			log.Error("auth lookup", zap.Error(err))
			return reply(c, fiber.StatusInternalServerError, msgServerError)
		}

		setUserID(c, id)
		return c.Next()
	}
}

// tokenFromHeader returns the raw token. The header normally carries the
// token verbatim; a "Bearer " prefix is stripped if present.
func tokenFromHeader(h string) string {
	h = strings.TrimSpace(h)
	const prefix = "bearer "
	if len(h) >= len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		h = strings.TrimSpace(h[len(prefix):])
	}
	return h
}

// CORS allows the configured frontend origin to call the API with credentials.
func CORS(origin string) fiber.Handler {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		origin = DefaultCORSOrigin
	}
	return cors.New(cors.Config{
		AllowOrigins: origin,
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type, Authorization",
		// credentials cannot be combined with a wildcard origin
		AllowCredentials: origin != "*",
	})
}

// BurstLimit caps requests per client IP per minute. perMinute <= 0 disables it.
func BurstLimit(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return reply(c, fiber.StatusTooManyRequests, msgTooManyRequests)
		},
	})
}
