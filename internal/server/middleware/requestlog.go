package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/logging"
	"restaurant-pos/backend/internal/platform/response"
)

// RequestLog logs one line per request with method, route, status and duration.
// Errors returned by handlers are classified so the logged status matches what the error handler will send.
func RequestLog(log logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status, _ = response.Classify(err)
		}
		args := []any{
			"method", c.Method(),
			"route", c.Route().Path,
			"path", c.Path(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if rid := RequestID(c.UserContext()); rid != "" {
			args = append(args, "request_id", rid)
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error(c.UserContext(), "http request", append(args, "error", err)...)
		case status >= fiber.StatusBadRequest:
			log.Warn(c.UserContext(), "http request", args...)
		default:
			log.Info(c.UserContext(), "http request", args...)
		}
		return err
	}
}
