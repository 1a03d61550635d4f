// Package handler serves restaurant settings.
package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/settings/domain"
)

// Service is the settings behaviour the handler needs. *settings.Provider implements it.
type Service interface {
	Current(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, s domain.Settings) (*domain.Settings, error)
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Get handles GET /api/settings.
func (h *Handler) Get(c *fiber.Ctx) error {
	s, err := h.svc.Current(c.UserContext())
	if err != nil {
		return response.Internal(err)
	}
	return response.OK(c, s)
}

type updateRequest struct {
	RestaurantName *string `json:"restaurantName"`
	TaxRateBps     *int    `json:"taxRateBps"`
	Currency       *string `json:"currency"`
}

// Update handles PUT /api/settings. Omitted fields keep their current value.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	ctx := c.UserContext()
	cur, err := h.svc.Current(ctx)
	if err != nil {
		return response.Internal(err)
	}
	next := *cur
	if req.RestaurantName != nil {
		next.RestaurantName = *req.RestaurantName
	}
	if req.TaxRateBps != nil {
		next.TaxRateBps = *req.TaxRateBps
	}
	if req.Currency != nil {
		next.Currency = *req.Currency
	}
	saved, err := h.svc.Update(ctx, next)
	if err != nil {
		if isValidation(err) {
			return response.BadRequest(err.Error())
		}
		return response.Internal(err)
	}
	return response.OK(c, saved)
}

func isValidation(err error) bool {
	return errors.Is(err, domain.ErrRestaurantNameRequired) ||
		errors.Is(err, domain.ErrInvalidTaxRate) ||
		errors.Is(err, domain.ErrInvalidCurrency)
}
