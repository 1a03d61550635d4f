// Package handler serves login, logout, the current user and password changes.
package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/audit"
	"restaurant-pos/backend/internal/identity/service"
	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/security"
	"restaurant-pos/backend/internal/server/middleware"
	userdomain "restaurant-pos/backend/internal/user/domain"
)

// AuthService is the subset of *service.AuthService used by the handler.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Me(ctx context.Context, userID string) (*userdomain.User, error)
	ChangePassword(ctx context.Context, in service.ChangePasswordInput) error
}

// ManagePermission reports whether the caller may manage other users.
type ManagePermission func(ctx context.Context) bool

type Handler struct {
	auth      AuthService
	audit     audit.AuditLogger
	cookie    CookieConfig
	canManage ManagePermission
}

// New returns the auth handler. auditLogger and canManage may be nil.
func New(auth AuthService, auditLogger audit.AuditLogger, cookie CookieConfig, canManage ManagePermission) *Handler {
	if canManage == nil {
		canManage = func(context.Context) bool { return false }
	}
	return &Handler{auth: auth, audit: auditLogger, cookie: cookie, canManage: canManage}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User *userdomain.User `json:"user"`
}

// Login verifies credentials and sets the session cookie.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	ctx := c.UserContext()
	res, err := h.auth.Login(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return response.BadRequest("Email and password are required")
	case errors.Is(err, service.ErrInvalidCredentials):
		h.logEvent(ctx, "", audit.ActionLoginFailure, "email="+userdomain.NormalizeEmail(req.Email))
		return response.Unauthorized("Invalid email or password")
	case err != nil:
		return response.Internal(err)
	}
	h.setSessionCookie(c, res.Token, res.ExpiresAt)
	h.logEvent(ctx, res.User.ID, audit.ActionLoginSuccess, "")
	return response.OK(c, loginResponse{User: res.User})
}

// Logout clears the session cookie. It always succeeds; tokens are not revoked server-side.
func (h *Handler) Logout(c *fiber.Ctx) error {
	h.clearSessionCookie(c)
	if id, ok := middleware.CurrentIdentity(c); ok {
		h.logEvent(c.UserContext(), id.UserID, audit.ActionLogout, "")
	}
	return response.Empty(c)
}

// Me returns the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return response.Unauthorized("authentication required")
	}
	u, err := h.auth.Me(c.UserContext(), id.UserID)
	if errors.Is(err, service.ErrUserNotFound) {
		return response.NotFound("User not found")
	}
	if err != nil {
		return response.Internal(err)
	}
	return response.OK(c, loginResponse{User: u})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword handles POST /api/users/:id/change-password.
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return response.Unauthorized("authentication required")
	}
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	ctx := c.UserContext()
	target := c.Params("id")
	err := h.auth.ChangePassword(ctx, service.ChangePasswordInput{
		ActorID:         id.UserID,
		CanManageUsers:  target != id.UserID && h.canManage(ctx),
		TargetID:        target,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotAllowed):
		return response.Forbidden("insufficient permissions")
	case errors.Is(err, service.ErrUserNotFound):
		return response.NotFound("User not found")
	case errors.Is(err, service.ErrWrongCurrentPassword):
		return response.BadRequest("Current password is incorrect")
	case errors.Is(err, service.ErrCurrentPasswordRequired),
		errors.Is(err, security.ErrWeakPassword),
		errors.Is(err, security.ErrPasswordTooLong):
		return response.BadRequest(err.Error())
	default:
		return response.Internal(err)
	}
	h.logEvent(ctx, id.UserID, audit.ActionPasswordChanged, "target="+target)
	return response.Empty(c)
}

func (h *Handler) logEvent(ctx context.Context, userID, action, metadata string) {
	if h.audit != nil {
		h.audit.LogEvent(ctx, userID, action, "auth", metadata)
	}
}
