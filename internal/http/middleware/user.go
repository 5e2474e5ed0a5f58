package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// UserIDHeader is set by the authenticating gateway in front of the service.
	UserIDHeader = "X-User-ID"
	// UserIDLocalKey is the Fiber locals key holding the caller's user ID.
	UserIDLocalKey = "user_id"
)

// ErrMissingUser is turned into a 401 payload by the app ErrorHandler.
var ErrMissingUser = fiber.NewError(fiber.StatusUnauthorized, "missing "+UserIDHeader+" header")

// RequireUser rejects requests without a user ID header.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := strings.TrimSpace(c.Get(UserIDHeader))
		if uid == "" {
			return ErrMissingUser
		}
		c.Locals(UserIDLocalKey, uid)
		return c.Next()
	}
}

// UserID returns the ID stored by RequireUser, or "".
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(UserIDLocalKey).(string)
	return uid
}
