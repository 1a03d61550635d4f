package repository

import (
	"context"
	"time"

	"restaurant-pos/backend/internal/dashboard/domain"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository interface {
	// Revenue returns the summed total and count of orders paid in [from, to).
	Revenue(ctx context.Context, from, to time.Time) (cents int64, orders int, err error)
	CountOpenOrders(ctx context.Context) (int, error)
	// TopItems ranks items on orders paid in [from, to) by quantity.
	TopItems(ctx context.Context, from, to time.Time, limit int) ([]domain.TopItem, error)
}
