// Package handler serves menu categories.
package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"restaurant-pos/backend/internal/category/domain"
	categoryrepo "restaurant-pos/backend/internal/category/repository"
	"restaurant-pos/backend/internal/platform/response"
)

type Handler struct {
	categories categoryrepo.Repository
	now        func() time.Time
}

func New(categories categoryrepo.Repository) *Handler {
	return &Handler{categories: categories, now: func() time.Time { return time.Now().UTC() }}
}

// List handles GET /api/categories. ?active=true hides inactive categories.
func (h *Handler) List(c *fiber.Ctx) error {
	list, err := h.categories.List(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return response.Internal(err)
	}
	if list == nil {
		list = []*domain.Category{}
	}
	return response.OK(c, list)
}

type categoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sortOrder"`
	Active      *bool   `json:"active"`
}

func (r categoryRequest) apply(cat *domain.Category) {
	if r.Name != nil {
		cat.Name = *r.Name
	}
	if r.Description != nil {
		cat.Description = *r.Description
	}
	if r.SortOrder != nil {
		cat.SortOrder = *r.SortOrder
	}
	if r.Active != nil {
		cat.Active = *r.Active
	}
}

// Create handles POST /api/categories. New categories are active unless stated otherwise.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	now := h.now()
	cat := &domain.Category{ID: uuid.New().String(), Active: true, CreatedAt: now, UpdatedAt: now}
	req.apply(cat)
	if err := cat.Validate(); err != nil {
		return response.BadRequest(err.Error())
	}
	if err := h.categories.Create(c.UserContext(), cat); err != nil {
		return mapWriteErr(err)
	}
	return response.Created(c, cat)
}

// Update handles PUT /api/categories/:id.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	ctx := c.UserContext()
	cat, err := h.categories.GetByID(ctx, c.Params("id"))
	if err != nil {
		return response.Internal(err)
	}
	if cat == nil {
		return response.NotFound("Category not found")
	}
	req.apply(cat)
	if err := cat.Validate(); err != nil {
		return response.BadRequest(err.Error())
	}
	cat.UpdatedAt = h.now()
	if err := h.categories.Update(ctx, cat); err != nil {
		return mapWriteErr(err)
	}
	return response.OK(c, cat)
}

// Delete handles DELETE /api/categories/:id. Categories that still hold items are refused.
func (h *Handler) Delete(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	n, err := h.categories.CountItems(ctx, id)
	if err != nil {
		return response.Internal(err)
	}
	if n > 0 {
		return response.Conflict("Category has menu items")
	}
	deleted, err := h.categories.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, categoryrepo.ErrHasItems) {
			return response.Conflict("Category has menu items")
		}
		return response.Internal(err)
	}
	if !deleted {
		return response.NotFound("Category not found")
	}
	return response.Empty(c)
}

func mapWriteErr(err error) error {
	if errors.Is(err, categoryrepo.ErrNameTaken) {
		return response.Conflict("Category name already exists")
	}
	return response.Internal(err)
}
