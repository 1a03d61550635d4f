package repository

import (
	"context"
	"time"

	"restaurant-pos/backend/internal/dashboard/domain"
	"restaurant-pos/backend/internal/db"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a dashboard repository that reads from the given db.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Revenue(ctx context.Context, from, to time.Time) (int64, int, error) {
	var (
		cents  int64
		orders int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_cents), 0), COUNT(*) FROM orders
		 WHERE status = 'paid' AND paid_at >= $1 AND paid_at < $2`, from, to).Scan(&cents, &orders)
	return cents, orders, err
}

func (r *PostgresRepository) CountOpenOrders(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE status NOT IN ('paid', 'cancelled')`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) TopItems(ctx context.Context, from, to time.Time, limit int) ([]domain.TopItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT oi.menu_item_id, MAX(oi.name), SUM(oi.quantity), SUM(oi.quantity * oi.unit_price_cents)
		 FROM order_items oi JOIN orders o ON o.id = oi.order_id
		 WHERE o.status = 'paid' AND o.paid_at >= $1 AND o.paid_at < $2
		 GROUP BY oi.menu_item_id
		 ORDER BY SUM(oi.quantity) DESC, MAX(oi.name)
		 LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.TopItem{}
	for rows.Next() {
		var it domain.TopItem
		if err := rows.Scan(&it.MenuItemID, &it.Name, &it.Quantity, &it.RevenueCents); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

var _ Repository = (*PostgresRepository)(nil)
