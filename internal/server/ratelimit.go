package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"restaurant-pos/backend/internal/platform/response"
)

const defaultLoginLimit = 10

// rateLimitLogin limits login attempts to max per minute per client IP.
func rateLimitLogin(max int) fiber.Handler {
	if max <= 0 {
		max = defaultLoginLimit
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Fail(c, fiber.StatusTooManyRequests, "too many login attempts, try again later")
		},
	})
}
