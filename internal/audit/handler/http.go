// Package handler serves the audit trail.
package handler

import (
	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/audit/domain"
	auditrepo "restaurant-pos/backend/internal/audit/repository"
	"restaurant-pos/backend/internal/platform/pagination"
	"restaurant-pos/backend/internal/platform/response"
)

type Handler struct {
	repo auditrepo.Repository
}

func New(repo auditrepo.Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /api/audit-logs?userId=&action=&resource=&page=&limit=.
func (h *Handler) List(c *fiber.Ctx) error {
	p := pagination.Parse(c.Query("page"), c.Query("limit"))
	f := domain.ListFilter{
		UserID:   c.Query("userId"),
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
	}
	logs, total, err := h.repo.List(c.UserContext(), f, p.Limit, p.Offset())
	if err != nil {
		return response.Internal(err)
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}
	return response.Page(c, logs, pagination.NewMeta(p, total))
}
