// Package handler serves dining table management.
package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/table/domain"
	tablerepo "restaurant-pos/backend/internal/table/repository"
)

type Handler struct {
	tables tablerepo.Repository
	now    func() time.Time
}

func New(tables tablerepo.Repository) *Handler {
	return &Handler{tables: tables, now: func() time.Time { return time.Now().UTC() }}
}

// List handles GET /api/tables?status=.
func (h *Handler) List(c *fiber.Ctx) error {
	status := domain.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		return response.BadRequest(domain.ErrInvalidStatus.Error())
	}
	list, err := h.tables.List(c.UserContext(), status)
	if err != nil {
		return response.Internal(err)
	}
	if list == nil {
		list = []*domain.Table{}
	}
	return response.OK(c, list)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	t, err := h.load(c)
	if err != nil {
		return err
	}
	return response.OK(c, t)
}

type tableRequest struct {
	Number   *int    `json:"number"`
	Name     *string `json:"name"`
	Capacity *int    `json:"capacity"`
	Status   *string `json:"status"`
}

func (r tableRequest) apply(t *domain.Table) {
	if r.Number != nil {
		t.Number = *r.Number
	}
	if r.Name != nil {
		t.Name = *r.Name
	}
	if r.Capacity != nil {
		t.Capacity = *r.Capacity
	}
	if r.Status != nil {
		t.Status = domain.Status(*r.Status)
	}
}

// Create handles POST /api/tables.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req tableRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	now := h.now()
	t := &domain.Table{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	req.apply(t)
	if err := t.Validate(); err != nil {
		return response.BadRequest(err.Error())
	}
	if err := h.tables.Create(c.UserContext(), t); err != nil {
		return mapWriteErr(err)
	}
	return response.Created(c, t)
}

// Update handles PUT /api/tables/:id. Omitted fields are left unchanged.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req tableRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	t, err := h.load(c)
	if err != nil {
		return err
	}
	req.apply(t)
	if err := t.Validate(); err != nil {
		return response.BadRequest(err.Error())
	}
	t.UpdatedAt = h.now()
	if err := h.tables.Update(c.UserContext(), t); err != nil {
		return mapWriteErr(err)
	}
	return response.OK(c, t)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/tables/:id/status.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	status := domain.Status(req.Status)
	if !status.Valid() {
		return response.BadRequest(domain.ErrInvalidStatus.Error())
	}
	ctx := c.UserContext()
	ok, err := h.tables.SetStatus(ctx, c.Params("id"), status)
	if err != nil {
		return response.Internal(err)
	}
	if !ok {
		return response.NotFound("Table not found")
	}
	t, err := h.tables.GetByID(ctx, c.Params("id"))
	if err != nil {
		return response.Internal(err)
	}
	if t == nil {
		return response.NotFound("Table not found")
	}
	return response.OK(c, t)
}

// Delete handles DELETE /api/tables/:id. Tables with an open order cannot be removed.
func (h *Handler) Delete(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	open, err := h.tables.HasOpenOrder(ctx, id)
	if err != nil {
		return response.Internal(err)
	}
	if open {
		return response.Conflict("Table has an open order")
	}
	deleted, err := h.tables.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, tablerepo.ErrTableInUse) {
			return response.Conflict("Table is referenced by past orders")
		}
		return response.Internal(err)
	}
	if !deleted {
		return response.NotFound("Table not found")
	}
	return response.Empty(c)
}

func (h *Handler) load(c *fiber.Ctx) (*domain.Table, error) {
	t, err := h.tables.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, response.Internal(err)
	}
	if t == nil {
		return nil, response.NotFound("Table not found")
	}
	return t, nil
}

func mapWriteErr(err error) error {
	if errors.Is(err, tablerepo.ErrNumberTaken) {
		return response.Conflict("Table number already exists")
	}
	return response.Internal(err)
}
