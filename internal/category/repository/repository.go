package repository

import (
	"context"
	"errors"

	"restaurant-pos/backend/internal/category/domain"
)

var (
	ErrNameTaken = errors.New("category name already in use")
	// ErrHasItems is returned by Delete when menu items still belong to the category.
	ErrHasItems = errors.New("category has menu items")
)

// Repository defines persistence for menu categories.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	// List returns categories ordered by sort order then name. activeOnly hides inactive ones.
	List(ctx context.Context, activeOnly bool) ([]*domain.Category, error)
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) (bool, error)
	CountItems(ctx context.Context, id string) (int, error)
}
