package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const (
	// Header is the response (and optional request) header carrying the ray id.
	Header = "X-Ray-ID"
	// LocalsKey is the fiber locals key under which the ray id is stored.
	LocalsKey = "ray_id"
)

// New returns a middleware assigning every request a ray id. An incoming X-Ray-ID
// header is reused, otherwise a new UUID is generated.
func New() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     Header,
		Generator:  uuid.NewString,
		ContextKey: LocalsKey,
	})
}
