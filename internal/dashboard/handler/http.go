// Package handler serves the manager dashboard.
package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/dashboard/domain"
	"restaurant-pos/backend/internal/platform/response"
)

type Summarizer interface {
	Summary(ctx context.Context) (*domain.Summary, error)
}

type Handler struct {
	svc Summarizer
}

func New(svc Summarizer) *Handler {
	return &Handler{svc: svc}
}

// Summary handles GET /api/dashboard/summary.
func (h *Handler) Summary(c *fiber.Ctx) error {
	s, err := h.svc.Summary(c.UserContext())
	if err != nil {
		return response.Internal(err)
	}
	return response.OK(c, s)
}
