package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
)

type ctxKey string

const userIDKey ctxKey = "cm.userID"

// localsUserID is the fiber.Ctx locals key holding the authenticated user id.
const localsUserID = "userID"

// WithUserID stores authenticated user ID in context.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromCtx fetches user ID from context.
func UserIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// UserIDFrom returns the identity attached by the Auth middleware.
func UserIDFrom(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(localsUserID).(uuid.UUID)
	if ok {
		return id, true
	}
	return UserIDFromCtx(c.UserContext())
}

func setUserID(c *fiber.Ctx, id uuid.UUID) {
	c.Locals(localsUserID, id)
	c.SetUserContext(WithUserID(c.UserContext(), id))
}
