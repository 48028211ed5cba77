package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RayIDHeader carries the request id on responses and may be supplied by the
// caller to correlate retries.
const RayIDHeader = "X-Ray-ID"

// RayID assigns every request a unique id, stored in the request locals and
// echoed on the response. Handlers attach it to log lines via
// logger.WithRayID.
func RayID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(RayIDHeader)
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Locals("ray_id", rid)
		c.Set(RayIDHeader, rid)
		return c.Next()
	}
}
