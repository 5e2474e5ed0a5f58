package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"legaldoc/internal/analysis"
	"legaldoc/internal/http/middleware"
	"legaldoc/internal/llm"
	"legaldoc/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// edgeErrorPayload is the flat body /analyze has always returned.
type edgeErrorPayload struct {
	Error string `json:"error"`
}

// writeError writes a standardized JSON error response. message must be
// safe for clients; internal error text never goes here.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	})
}

func writeEdgeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(edgeErrorPayload{Error: message})
}

// isProviderFailure reports errors caused by the completion provider rather than by us.
func isProviderFailure(err error) bool {
	var se *llm.StatusError
	return errors.Is(err, analysis.ErrRetriesExhausted) || errors.As(err, &se)
}

// writeServiceError maps service sentinels to statuses and codes.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "analysis not found")
	case errors.Is(err, service.ErrUnsupportedType):
		return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "supported types are pdf, doc, docx and txt")
	case errors.Is(err, service.ErrTooLarge):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload limit")
	case errors.Is(err, service.ErrNoText), errors.Is(err, analysis.ErrEmptyDocument):
		return writeError(c, fiber.StatusUnprocessableEntity, "NO_TEXT", "document contains no extractable text")
	case isProviderFailure(err):
		return writeError(c, fiber.StatusBadGateway, "PROVIDER_ERROR", "analysis provider unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHENTICATED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body too large")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
