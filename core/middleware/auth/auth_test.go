package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/sync/runs", func(c *fiber.Ctx) error { return c.SendString("runs") })
	return app
}

func TestAuth(t *testing.T) {
	app := newApp(Config{ApiKey: "secret", Skip: []string{"/health"}})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing key", "/sync/runs", "", fiber.StatusUnauthorized},
		{"wrong key", "/sync/runs", "nope", fiber.StatusUnauthorized},
		{"valid key", "/sync/runs", "secret", fiber.StatusOK},
		{"skipped path", "/health", "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set(HeaderName, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	app := newApp(Config{})
	resp, err := app.Test(httptest.NewRequest("GET", "/sync/runs", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
