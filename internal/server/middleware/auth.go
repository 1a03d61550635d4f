package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/security"
)

const bearerPrefix = "bearer "

// TokenVerifier verifies session tokens. *security.TokenProvider implements it.
type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

// RequireAuth returns middleware that verifies the session token from the cookieName cookie,
// falling back to an Authorization: Bearer header, and stores the identity on the request context.
// Missing or invalid tokens get 401.
func RequireAuth(tokens TokenVerifier, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := extractToken(c, cookieName)
		if raw == "" {
			return response.Unauthorized("authentication required")
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			return response.Unauthorized("invalid or expired session")
		}
		setIdentity(c, claims)
		return c.Next()
	}
}

// OptionalAuth stores the identity when a valid session token is present and otherwise lets the
// request through anonymously.
func OptionalAuth(tokens TokenVerifier, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := extractToken(c, cookieName); raw != "" {
			if claims, err := tokens.Verify(raw); err == nil {
				setIdentity(c, claims)
			}
		}
		return c.Next()
	}
}

func setIdentity(c *fiber.Ctx, claims *security.Claims) {
	c.SetUserContext(WithIdentity(c.UserContext(), Identity{
		UserID: claims.ID,
		Email:  claims.Email,
		Role:   claims.Role,
		Name:   claims.Name,
	}))
}

func extractToken(c *fiber.Ctx, cookieName string) string {
	if v := strings.TrimSpace(c.Cookies(cookieName)); v != "" {
		return v
	}
	return extractBearer(c.Get(fiber.HeaderAuthorization))
}

// extractBearer returns the token of an "Authorization: Bearer <token>" header value, or "".
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
