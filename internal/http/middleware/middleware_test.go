package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(c))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, ridHeader, string(body))
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, existingID, string(body))
	})

	t.Run("should replace malformed request id", func(t *testing.T) {
		for _, bad := range []string{strings.Repeat("x", 129), "has space"} {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set(RequestIDHeader, bad)

			resp, _ := app.Test(req)

			got := resp.Header.Get(RequestIDHeader)
			assert.NotEqual(t, bad, got)
			assert.Len(t, got, 36)
		}
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	loc := time.UTC

	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, loc))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
	assert.Equal(t, "info", logData["level"])
}

func TestLogger_ErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(LoggerWithWriter(&buf, time.UTC))
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadGateway, "upstream")
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	_, _ = app.Test(httptest.NewRequest("GET", "/boom", nil))
	_, _ = app.Test(httptest.NewRequest("GET", "/missing", nil))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, float64(fiber.StatusBadGateway), first["status"])
	assert.Equal(t, "error", first["level"])
	assert.Equal(t, float64(fiber.StatusNotFound), second["status"])
	assert.Equal(t, "warn", second["level"])
}

func TestRequireUser(t *testing.T) {
	app := fiber.New()
	app.Get("/me", RequireUser(), func(c *fiber.Ctx) error {
		return c.SendString(UserID(c))
	})

	t.Run("present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set(UserIDHeader, "  user-42 ")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "user-42", string(body))
	})

	t.Run("missing", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest("GET", "/me", nil))
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestEdgeCORS(t *testing.T) {
	app := fiber.New()
	app.Post("/analyze", EdgeCORS(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Options("/analyze", EdgeCORS())

	t.Run("preflight", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest("OPTIONS", "/analyze", nil))

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
		assert.Equal(t, EdgeAllowHeaders, resp.Header.Get(fiber.HeaderAccessControlAllowHeaders))
		body, _ := io.ReadAll(resp.Body)
		assert.Empty(t, body)
	})

	t.Run("post carries headers", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest("POST", "/analyze", nil))

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	})
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS())
	app.Get("/analyses", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest("GET", "/analyses", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://app.example.com")
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Equal(t, RequestIDHeader, resp.Header.Get(fiber.HeaderAccessControlExposeHeaders))
}
