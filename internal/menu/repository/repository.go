package repository

import (
	"context"
	"errors"
	"time"

	"restaurant-pos/backend/internal/menu/domain"
)

var (
	// ErrUnknownCategory is returned when category_id does not reference a category.
	ErrUnknownCategory = errors.New("category does not exist")
	// ErrItemInUse is returned by Delete when order lines reference the item.
	ErrItemInUse = errors.New("menu item is referenced by orders")
)

// Repository defines persistence for menu items.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	// GetByIDs returns the items found for ids keyed by id; missing ids are absent.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Item, error)
	// List returns a page of items ordered by name and the total matching count.
	List(ctx context.Context, f domain.ListFilter, limit, offset int) ([]*domain.Item, int, error)
	// ListAvailable returns every available item ordered by name.
	ListAvailable(ctx context.Context) ([]*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	SetAvailability(ctx context.Context, id string, available bool, at time.Time) (bool, error)
	SetImageKey(ctx context.Context, id, key string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}
