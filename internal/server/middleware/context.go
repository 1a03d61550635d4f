package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

type contextKey struct{ name string }

var (
	identityKey = contextKey{"identity"}
	clientIPKey = contextKey{"client_ip"}
	requestKey  = contextKey{"request_id"}
)

// Identity is the authenticated staff member behind a request.
type Identity struct {
	UserID string
	Email  string
	Role   string
	Name   string
}

// WithIdentity returns a context carrying id. Handlers and services read it via GetIdentity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the identity from context and true if set; otherwise a zero Identity, false.
func GetIdentity(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	return v, ok && v.UserID != ""
}

// GetUserID returns the user id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	id, ok := GetIdentity(ctx)
	return id.UserID, ok
}

// WithClientIP returns a context carrying the client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP from context, or "unknown".
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// RequestID returns the request id from context, or "".
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestKey).(string)
	return v
}

// CurrentIdentity reads the identity RequireAuth stored on the fiber request.
func CurrentIdentity(c *fiber.Ctx) (Identity, bool) {
	return GetIdentity(c.UserContext())
}

// RequestContext copies the client IP and request id onto the request's user context so that
// services and the audit logger can read them without access to *fiber.Ctx.
// Must run after the requestid middleware.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := WithClientIP(c.UserContext(), c.IP())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ctx = context.WithValue(ctx, requestKey, rid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}
