package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-pos/backend/internal/db"
	"restaurant-pos/backend/internal/menu/domain"
)

const itemColumns = `id, category_id, name, description, price_cents, available, image_key, created_at, updated_at`

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a menu item repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the item for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Item, error) {
	out := make(map[string]*domain.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	items, err := r.query(ctx,
		`SELECT `+itemColumns+` FROM menu_items WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

// filterWhere is shared by the page and count queries. $1..$4 are category, availability
// (NULL matches all), query and its LIKE pattern.
const filterWhere = `($1 = '' OR category_id = $1)
	AND ($2::boolean IS NULL OR available = $2)
	AND ($3 = '' OR name ILIKE $4 OR description ILIKE $4)`

func (r *PostgresRepository) List(ctx context.Context, f domain.ListFilter, limit, offset int) ([]*domain.Item, int, error) {
	var avail sql.NullBool
	if f.Available != nil {
		avail = sql.NullBool{Bool: *f.Available, Valid: true}
	}
	q := strings.TrimSpace(f.Query)
	pattern := "%" + escapeLike(q) + "%"

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_items WHERE `+filterWhere,
		f.CategoryID, avail, q, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx,
		`SELECT `+itemColumns+` FROM menu_items WHERE `+filterWhere+` ORDER BY name, id LIMIT $5 OFFSET $6`,
		f.CategoryID, avail, q, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresRepository) ListAvailable(ctx context.Context) ([]*domain.Item, error) {
	return r.query(ctx, `SELECT `+itemColumns+` FROM menu_items WHERE available ORDER BY name, id`)
}

func (r *PostgresRepository) Create(ctx context.Context, item *domain.Item) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO menu_items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID, item.CategoryID, item.Name, item.Description, item.PriceCents, item.Available, item.ImageKey,
		item.CreatedAt, item.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrUnknownCategory
	}
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, item *domain.Item) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE menu_items SET category_id = $2, name = $3, description = $4, price_cents = $5, available = $6,
		 image_key = $7, updated_at = $8 WHERE id = $1`,
		item.ID, item.CategoryID, item.Name, item.Description, item.PriceCents, item.Available, item.ImageKey, item.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return ErrUnknownCategory
	}
	return err
}

func (r *PostgresRepository) SetAvailability(ctx context.Context, id string, available bool, at time.Time) (bool, error) {
	return r.exec(ctx, `UPDATE menu_items SET available = $2, updated_at = $3 WHERE id = $1`, id, available, at)
}

func (r *PostgresRepository) SetImageKey(ctx context.Context, id, key string, at time.Time) (bool, error) {
	return r.exec(ctx, `UPDATE menu_items SET image_key = $2, updated_at = $3 WHERE id = $1`, id, key, at)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return false, ErrItemInUse
	}
	return ok, err
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var i domain.Item
	if err := row.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Description, &i.PriceCents, &i.Available, &i.ImageKey,
		&i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

var _ Repository = (*PostgresRepository)(nil)
