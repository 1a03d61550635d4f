// Package handler serves staff account management.
package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"restaurant-pos/backend/internal/audit"
	"restaurant-pos/backend/internal/platform/pagination"
	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/security"
	"restaurant-pos/backend/internal/server/middleware"
	"restaurant-pos/backend/internal/user/domain"
	userrepo "restaurant-pos/backend/internal/user/repository"
)

// PasswordHasher hashes new passwords. *security.Hasher implements it.
type PasswordHasher interface {
	Hash(password []byte) (string, error)
}

type Handler struct {
	users     userrepo.Repository
	hasher    PasswordHasher
	audit     audit.AuditLogger
	canManage func(ctx context.Context) bool
	now       func() time.Time
}

// New returns the user handler. canManage reports whether the caller may read other users;
// write routes are guarded by policy middleware at mount time.
func New(users userrepo.Repository, hasher PasswordHasher, auditLogger audit.AuditLogger, canManage func(ctx context.Context) bool) *Handler {
	if canManage == nil {
		canManage = func(context.Context) bool { return false }
	}
	return &Handler{
		users:     users,
		hasher:    hasher,
		audit:     auditLogger,
		canManage: canManage,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List handles GET /api/users?role=&page=&limit=.
func (h *Handler) List(c *fiber.Ctx) error {
	p := pagination.Parse(c.Query("page"), c.Query("limit"))
	f := domain.ListFilter{Role: domain.Role(c.Query("role"))}
	if f.Role != "" && !f.Role.Valid() {
		return response.BadRequest("invalid role")
	}
	users, total, err := h.users.List(c.UserContext(), f, p.Limit, p.Offset())
	if err != nil {
		return response.Internal(err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return response.Page(c, users, pagination.NewMeta(p, total))
}

// Get handles GET /api/users/:id. Staff may read themselves; managing roles may read anyone.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return response.Unauthorized("authentication required")
	}
	target := c.Params("id")
	if target != id.UserID && !h.canManage(c.UserContext()) {
		return response.Forbidden("insufficient permissions")
	}
	u, err := h.users.GetByID(c.UserContext(), target)
	if err != nil {
		return response.Internal(err)
	}
	if u == nil {
		return response.NotFound("User not found")
	}
	return response.OK(c, u)
}

type createRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create handles POST /api/users.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	now := h.now()
	u := &domain.User{
		ID:        uuid.New().String(),
		Email:     domain.NormalizeEmail(req.Email),
		Name:      strings.TrimSpace(req.Name),
		Role:      domain.Role(strings.TrimSpace(req.Role)),
		Status:    domain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.Validate(); err != nil {
		return response.BadRequest(err.Error())
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return response.BadRequest(err.Error())
	}
	hash, err := h.hasher.Hash([]byte(req.Password))
	if err != nil {
		return response.Internal(err)
	}
	u.PasswordHash = hash
	ctx := c.UserContext()
	if err := h.users.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return response.Conflict("Email already in use")
		}
		return response.Internal(err)
	}
	h.logEvent(ctx, audit.ActionUserCreated, u.ID)
	return response.Created(c, u)
}

type updateRequest struct {
	Email  *string `json:"email"`
	Name   *string `json:"name"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

// Update handles PUT /api/users/:id. Omitted fields are left unchanged.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	ctx := c.UserContext()
	u, err := h.users.GetByID(ctx, c.Params("id"))
	if err != nil {
		return response.Internal(err)
	}
	if u == nil {
		return response.NotFound("User not found")
	}
	if req.Email != nil {
		u.Email = domain.NormalizeEmail(*req.Email)
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		u.Role = domain.Role(strings.TrimSpace(*req.Role))
	}
	if req.Status != nil {
		u.Status = domain.UserStatus(strings.TrimSpace(*req.Status))
	}
	if err := u.Validate(); err != nil {
		return response.BadRequest(err.Error())
	}
	if id, ok := middleware.CurrentIdentity(c); ok && id.UserID == u.ID && u.Status == domain.UserStatusDisabled {
		return response.BadRequest("You cannot disable your own account")
	}
	u.UpdatedAt = h.now()
	if err := h.users.Update(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return response.Conflict("Email already in use")
		}
		return response.Internal(err)
	}
	h.logEvent(ctx, audit.ActionUserUpdated, u.ID)
	return response.OK(c, u)
}

// Delete handles DELETE /api/users/:id. Users cannot delete themselves.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return response.Unauthorized("authentication required")
	}
	target := c.Params("id")
	if target == id.UserID {
		return response.BadRequest("You cannot delete your own account")
	}
	ctx := c.UserContext()
	deleted, err := h.users.Delete(ctx, target)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserInUse) {
			return response.Conflict("User has orders; disable the account instead")
		}
		return response.Internal(err)
	}
	if !deleted {
		return response.NotFound("User not found")
	}
	h.logEvent(ctx, audit.ActionUserDeleted, target)
	return response.Empty(c)
}

func (h *Handler) logEvent(ctx context.Context, action, target string) {
	if h.audit == nil {
		return
	}
	actor, _ := middleware.GetUserID(ctx)
	h.audit.LogEvent(ctx, actor, action, "user", "id="+target)
}
