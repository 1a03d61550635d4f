package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/audit"
)

// Audit returns middleware that records an audit entry after every successful mutating request
// under /api made by an authenticated user. skip lists route patterns (e.g. "/api/auth/login")
// whose handlers audit themselves or are not worth auditing. Best-effort.
func Audit(logger audit.AuditLogger, skip map[string]bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if logger == nil || err != nil {
			return err
		}
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return nil
		}
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			return nil
		}
		route := c.Route().Path
		if skip[route] || !strings.HasPrefix(route, "/api/") {
			return nil
		}
		id, ok := CurrentIdentity(c)
		if !ok {
			return nil
		}
		ar := audit.ParseRoute(c.Method(), route)
		meta := ""
		if target := c.Params("id"); target != "" {
			meta = "id=" + target
		}
		logger.LogEvent(c.UserContext(), id.UserID, ar.Action, ar.Resource, meta)
		return nil
	}
}
