package repository

import (
	"context"
	"errors"

	"restaurant-pos/backend/internal/table/domain"
)

var (
	// ErrNumberTaken is returned when another table has the same number.
	ErrNumberTaken = errors.New("table number already in use")
	// ErrTableInUse is returned by Delete when orders reference the table.
	ErrTableInUse = errors.New("table is referenced by orders")
)

// Repository defines persistence for dining tables.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Table, error)
	// List returns tables ordered by number, optionally filtered by status.
	List(ctx context.Context, status domain.Status) ([]*domain.Table, error)
	Create(ctx context.Context, t *domain.Table) error
	Update(ctx context.Context, t *domain.Table) error
	// SetStatus returns false if no row matched.
	SetStatus(ctx context.Context, id string, status domain.Status) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	// HasOpenOrder reports whether an order that is neither paid nor cancelled references the table.
	HasOpenOrder(ctx context.Context, id string) (bool, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
}
