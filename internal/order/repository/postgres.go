package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-pos/backend/internal/db"
	"restaurant-pos/backend/internal/order/domain"
)

const (
	orderColumns = `id, table_id, waiter_id, status, note, payment_method, subtotal_cents, tax_cents, total_cents,
	created_at, updated_at, paid_at`
	itemColumns = `id, order_id, menu_item_id, name, unit_price_cents, quantity, note, created_at`
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an order repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) get(ctx context.Context, query, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadItems(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PostgresRepository) List(ctx context.Context, f domain.ListFilter, limit, offset int) ([]*domain.Order, int, error) {
	const where = `($1 = '' OR status = $1) AND ($2 = '' OR table_id = $2)`
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE `+where,
		string(f.Status), f.TableID).Scan(&total); err != nil {
		return nil, 0, err
	}
	orders, err := r.query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+where+` ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`,
		string(f.Status), f.TableID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, statuses []domain.Status) ([]*domain.Order, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = string(s)
	}
	orders, err := r.query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status IN (`+strings.Join(placeholders, ", ")+`) ORDER BY created_at, id`,
		args...)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PostgresRepository) Create(ctx context.Context, o *domain.Order) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, nullString(o.TableID), o.WaiterID, string(o.Status), o.Note, string(o.PaymentMethod),
		o.SubtotalCents, o.TaxCents, o.TotalCents, o.CreatedAt, o.UpdatedAt, o.PaidAt); err != nil {
		return err
	}
	return r.AddItems(ctx, o.Items)
}

func (r *PostgresRepository) AddItems(ctx context.Context, items []domain.Item) error {
	for _, it := range items {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO order_items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, it.OrderID, it.MenuItemID, it.Name, it.UnitPriceCents, it.Quantity, it.Note, it.CreatedAt); err != nil {
			return fmt.Errorf("insert order item %s: %w", it.ID, err)
		}
	}
	return nil
}

func (r *PostgresRepository) RemoveItem(ctx context.Context, orderID, itemID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM order_items WHERE id = $1 AND order_id = $2`, itemID, orderID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresRepository) UpdateTotals(ctx context.Context, o *domain.Order) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET subtotal_cents = $2, tax_cents = $3, total_cents = $4, updated_at = $5 WHERE id = $1`,
		o.ID, o.SubtotalCents, o.TaxCents, o.TotalCents, o.UpdatedAt)
	return err
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	return err
}

func (r *PostgresRepository) MarkPaid(ctx context.Context, id string, method domain.PaymentMethod, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = 'paid', payment_method = $2, paid_at = $3, updated_at = $3 WHERE id = $1`,
		id, string(method), at)
	return err
}

func (r *PostgresRepository) CountOpenForTable(ctx context.Context, tableID, exceptID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE table_id = $1 AND id <> $2 AND status NOT IN ('paid', 'cancelled')`,
		tableID, exceptID).Scan(&n)
	return n, err
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// loadItems fills Items for every order with one query.
func (r *PostgresRepository) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	placeholders := make([]string, len(orders))
	args := make([]any, len(orders))
	for i, o := range orders {
		byID[o.ID] = o
		o.Items = []domain.Item{}
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = o.ID
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id IN (`+strings.Join(placeholders, ", ")+`) ORDER BY created_at, id`,
		args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Name, &it.UnitPriceCents, &it.Quantity,
			&it.Note, &it.CreatedAt); err != nil {
			return err
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o       domain.Order
		tableID sql.NullString
		status  string
		method  string
		paidAt  sql.NullTime
	)
	if err := row.Scan(&o.ID, &tableID, &o.WaiterID, &status, &o.Note, &method,
		&o.SubtotalCents, &o.TaxCents, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt, &paidAt); err != nil {
		return nil, err
	}
	if tableID.Valid {
		o.TableID = &tableID.String
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	o.Status = domain.Status(status)
	o.PaymentMethod = domain.PaymentMethod(method)
	return &o, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var _ Repository = (*PostgresRepository)(nil)
