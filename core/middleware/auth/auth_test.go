package auth_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"presence-sync/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		header string
		path   string
		want   int
	}{
		{"ValidKey", "secret", "secret", "/roster", fiber.StatusOK},
		{"WrongKey", "secret", "guess", "/roster", fiber.StatusUnauthorized},
		{"MissingKey", "secret", "", "/roster", fiber.StatusUnauthorized},
		{"Disabled", "", "", "/roster", fiber.StatusOK},
		{"Skipped", "secret", "", "/metrics", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(auth.New(auth.Config{
				ApiKey: tt.apiKey,
				Skip:   func(c *fiber.Ctx) bool { return c.Path() == "/metrics" },
			}))
			app.Get("/*", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set(auth.Header, tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			if tt.want == fiber.StatusUnauthorized {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.JSONEq(t, `{"error": "Unauthorized"}`, string(body))
			}
		})
	}
}
