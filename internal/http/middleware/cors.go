package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	// EdgeAllowHeaders is the header list browser clients of /analyze send.
	EdgeAllowHeaders = "authorization, x-client-info, apikey, content-type"

	apiAllowHeaders = EdgeAllowHeaders + ", " + RequestIDHeader + ", " + UserIDHeader
)

// EdgeCORS sets permissive CORS headers on every response and answers
// OPTIONS itself with an empty 200.
func EdgeCORS() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		c.Set(fiber.HeaderAccessControlAllowHeaders, EdgeAllowHeaders)
		if c.Method() == fiber.MethodOptions {
			c.Status(fiber.StatusOK)
			return nil
		}
		return c.Next()
	}
}

// CORS is the fiber cors middleware configured for the document API.
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,DELETE,OPTIONS",
		AllowHeaders:  apiAllowHeaders,
		ExposeHeaders: RequestIDHeader,
		MaxAge:        600,
	})
}
