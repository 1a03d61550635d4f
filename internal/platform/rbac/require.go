// Package rbac enforces the role permission policy on HTTP routes.
package rbac

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/policy/engine"
	"restaurant-pos/backend/internal/server/middleware"
)

// Check ensures the caller is authenticated and the policy allows role to perform action on resource.
// Returns the caller identity on success; returns a *response.Error (401, 403 or 500) on failure.
func Check(ctx context.Context, evaluator engine.Evaluator, action engine.Action, resource engine.Resource) (middleware.Identity, error) {
	id, ok := middleware.GetIdentity(ctx)
	if !ok {
		return middleware.Identity{}, response.Unauthorized("authentication required")
	}
	allowed, err := evaluator.Allow(ctx, id.Role, action, resource)
	if err != nil {
		return middleware.Identity{}, &response.Error{
			Status:  fiber.StatusInternalServerError,
			Message: "failed to evaluate permissions",
			Cause:   err,
		}
	}
	if !allowed {
		return middleware.Identity{}, response.Forbidden("insufficient permissions")
	}
	return id, nil
}

// Require returns middleware that runs Check for a fixed action and resource.
func Require(evaluator engine.Evaluator, action engine.Action, resource engine.Resource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := Check(c.UserContext(), evaluator, action, resource); err != nil {
			return err
		}
		return c.Next()
	}
}

// IsAllowed reports whether the caller may perform action on resource, without failing the request.
// Evaluation errors count as denied.
func IsAllowed(ctx context.Context, evaluator engine.Evaluator, action engine.Action, resource engine.Resource) bool {
	_, err := Check(ctx, evaluator, action, resource)
	return err == nil
}
