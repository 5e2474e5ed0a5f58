package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// statusOf is the status the client will see. An error returned down the
// chain has not reached the app ErrorHandler yet, so its code wins over the
// response status.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// routePattern returns the matched route (e.g. /analyses/:id), falling back
// to the raw path when nothing matched.
func routePattern(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" && r.Path != "/" {
		return r.Path
	}
	return c.Path()
}
