// Package handler serves orders, the kitchen queue and payments.
package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/order/domain"
	"restaurant-pos/backend/internal/order/service"
	"restaurant-pos/backend/internal/platform/pagination"
	"restaurant-pos/backend/internal/platform/rbac"
	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/policy/engine"
	"restaurant-pos/backend/internal/server/middleware"
)

// OrderService is the order behaviour the handler needs. *service.OrderService implements it.
type OrderService interface {
	Create(ctx context.Context, in service.CreateInput) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f domain.ListFilter, limit, offset int) ([]*domain.Order, int, error)
	Kitchen(ctx context.Context) ([]*domain.Order, error)
	AddItems(ctx context.Context, orderID string, items []service.LineInput) (*domain.Order, error)
	RemoveItem(ctx context.Context, orderID, lineID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, to domain.Status) (*domain.Order, error)
	Pay(ctx context.Context, orderID string, method domain.PaymentMethod) (*domain.Order, error)
}

type Handler struct {
	orders    OrderService
	evaluator engine.Evaluator
}

// New returns the order handler. evaluator decides the status route, whose permission depends
// on the target status.
func New(orders OrderService, evaluator engine.Evaluator) *Handler {
	return &Handler{orders: orders, evaluator: evaluator}
}

type createRequest struct {
	TableID string              `json:"tableId"`
	Note    string              `json:"note"`
	Items   []service.LineInput `json:"items"`
}

// Create handles POST /api/orders.
func (h *Handler) Create(c *fiber.Ctx) error {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return response.Unauthorized("authentication required")
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	o, err := h.orders.Create(c.UserContext(), service.CreateInput{
		WaiterID: id.UserID,
		TableID:  req.TableID,
		Note:     req.Note,
		Items:    req.Items,
	})
	if err != nil {
		return mapErr(err)
	}
	return response.Created(c, o)
}

// List handles GET /api/orders?status=&tableId=&page=&limit=.
func (h *Handler) List(c *fiber.Ctx) error {
	p := pagination.Parse(c.Query("page"), c.Query("limit"))
	f := domain.ListFilter{Status: domain.Status(c.Query("status")), TableID: c.Query("tableId")}
	if f.Status != "" && !f.Status.Valid() {
		return response.BadRequest(domain.ErrInvalidStatus.Error())
	}
	orders, total, err := h.orders.List(c.UserContext(), f, p.Limit, p.Offset())
	if err != nil {
		return response.Internal(err)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return response.Page(c, orders, pagination.NewMeta(p, total))
}

func (h *Handler) Get(c *fiber.Ctx) error {
	o, err := h.orders.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapErr(err)
	}
	return response.OK(c, o)
}

// Kitchen handles GET /api/kitchen/orders.
func (h *Handler) Kitchen(c *fiber.Ctx) error {
	orders, err := h.orders.Kitchen(c.UserContext())
	if err != nil {
		return response.Internal(err)
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return response.OK(c, orders)
}

type addItemsRequest struct {
	Items []service.LineInput `json:"items"`
}

// AddItems handles POST /api/orders/:id/items. A single line may be sent without the items wrapper.
func (h *Handler) AddItems(c *fiber.Ctx) error {
	var req addItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	if len(req.Items) == 0 {
		var line service.LineInput
		if err := c.BodyParser(&line); err == nil && line.MenuItemID != "" {
			req.Items = []service.LineInput{line}
		}
	}
	o, err := h.orders.AddItems(c.UserContext(), c.Params("id"), req.Items)
	if err != nil {
		return mapErr(err)
	}
	return response.OK(c, o)
}

// RemoveItem handles DELETE /api/orders/:id/items/:itemId.
func (h *Handler) RemoveItem(c *fiber.Ctx) error {
	o, err := h.orders.RemoveItem(c.UserContext(), c.Params("id"), c.Params("itemId"))
	if err != nil {
		return mapErr(err)
	}
	return response.OK(c, o)
}

type statusRequest struct {
	Status string `json:"status"`
}

// StatusPermission returns the policy action and resource required to move an order to status.
// Kitchen steps are checked against the kitchen resource; everything else against orders.
func StatusPermission(status domain.Status) (engine.Action, engine.Resource) {
	switch status {
	case domain.StatusPreparing, domain.StatusReady:
		return engine.ActionUpdate, engine.ResourceKitchen
	default:
		return engine.ActionUpdate, engine.ResourceOrders
	}
}

// UpdateStatus handles PATCH /api/orders/:id/status.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	to := domain.Status(strings.TrimSpace(req.Status))
	if !to.Valid() {
		return response.BadRequest(domain.ErrInvalidStatus.Error())
	}
	ctx := c.UserContext()
	action, resource := StatusPermission(to)
	if _, err := rbac.Check(ctx, h.evaluator, action, resource); err != nil {
		return err
	}
	o, err := h.orders.UpdateStatus(ctx, c.Params("id"), to)
	if err != nil {
		return mapErr(err)
	}
	return response.OK(c, o)
}

type payRequest struct {
	Method string `json:"method"`
}

// Pay handles POST /api/orders/:id/pay.
func (h *Handler) Pay(c *fiber.Ctx) error {
	var req payRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest("invalid request body")
	}
	o, err := h.orders.Pay(c.UserContext(), c.Params("id"), domain.PaymentMethod(strings.TrimSpace(req.Method)))
	if err != nil {
		return mapErr(err)
	}
	return response.OK(c, o)
}

func mapErr(err error) error {
	var itemErr *service.ItemError
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return response.NotFound("Order not found")
	case errors.Is(err, service.ErrLineNotFound):
		return response.NotFound("Order item not found")
	case errors.Is(err, service.ErrTableNotFound):
		return response.BadRequest("Table not found")
	case errors.As(err, &itemErr):
		return response.BadRequest(itemErr.Error())
	case errors.Is(err, service.ErrNotEditable),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPayment),
		errors.Is(err, domain.ErrNoItems):
		return response.BadRequest(err.Error())
	}
	return response.Internal(err)
}
