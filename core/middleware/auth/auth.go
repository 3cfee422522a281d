package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
)

// Header is the request header carrying the API key.
const Header = "X-API-Key"

// Config holds configuration for the auth middleware.
type Config struct {
	// ApiKey is the expected key. Empty disables the check.
	ApiKey string
	// Skip returns true for requests that bypass authentication.
	Skip func(c *fiber.Ctx) bool
}

// New returns a middleware rejecting requests without a matching X-API-Key header.
func New(cfg Config) fiber.Handler {
	expected := []byte(cfg.ApiKey)

	return keyauth.New(keyauth.Config{
		Next: func(c *fiber.Ctx) bool {
			return len(expected) == 0 || (cfg.Skip != nil && cfg.Skip(c))
		},
		KeyLookup: "header:" + Header,
		Validator: func(_ *fiber.Ctx, key string) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), expected) == 1, nil
		},
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		},
	})
}
