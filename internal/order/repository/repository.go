package repository

import (
	"context"
	"time"

	"restaurant-pos/backend/internal/order/domain"
)

// Repository defines persistence for orders and their lines.
type Repository interface {
	// GetByID returns the order with its items, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetForUpdate is GetByID with the order row locked until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Order, error)
	// List returns a page of orders, newest first, without items.
	List(ctx context.Context, f domain.ListFilter, limit, offset int) ([]*domain.Order, int, error)
	// ListByStatus returns orders in any of statuses, oldest first, with items.
	ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error)
	// Create inserts the order and its items.
	Create(ctx context.Context, o *domain.Order) error
	AddItems(ctx context.Context, items []domain.Item) error
	RemoveItem(ctx context.Context, orderID, itemID string) (bool, error)
	// UpdateTotals stores the order's totals and UpdatedAt.
	UpdateTotals(ctx context.Context, o *domain.Order) error
	UpdateStatus(ctx context.Context, id string, status domain.Status, at time.Time) error
	MarkPaid(ctx context.Context, id string, method domain.PaymentMethod, at time.Time) error
	// CountOpenForTable counts open orders on tableID other than exceptID.
	CountOpenForTable(ctx context.Context, tableID, exceptID string) (int, error)
}
