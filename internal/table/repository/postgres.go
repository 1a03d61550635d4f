package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"restaurant-pos/backend/internal/db"
	"restaurant-pos/backend/internal/table/domain"
)

const tableColumns = `id, number, name, capacity, status, created_at, updated_at`

type PostgresRepository struct {
	db  db.DBTX
	now func() time.Time
}

// NewPostgresRepository returns a table repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

// GetByID returns the table for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx, `SELECT `+tableColumns+` FROM dining_tables WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context, status domain.Status) ([]*domain.Table, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tableColumns+` FROM dining_tables WHERE ($1 = '' OR status = $1) ORDER BY number`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, t *domain.Table) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dining_tables (`+tableColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Number, t.Name, t.Capacity, string(t.Status), t.CreatedAt, t.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrNumberTaken
	}
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, t *domain.Table) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dining_tables SET number = $2, name = $3, capacity = $4, status = $5, updated_at = $6 WHERE id = $1`,
		t.ID, t.Number, t.Name, t.Capacity, string(t.Status), t.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrNumberTaken
	}
	return err
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status domain.Status) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE dining_tables SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), r.now())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM dining_tables WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return false, ErrTableInUse
		}
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *PostgresRepository) HasOpenOrder(ctx context.Context, id string) (bool, error) {
	var open bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE table_id = $1 AND status NOT IN ('paid', 'cancelled'))`, id).Scan(&open)
	return open, err
}

func (r *PostgresRepository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM dining_tables GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[domain.Status]int{
		domain.StatusAvailable: 0,
		domain.StatusOccupied:  0,
		domain.StatusReserved:  0,
		domain.StatusCleaning:  0,
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.Status(status)] = n
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTable(row rowScanner) (*domain.Table, error) {
	var (
		t      domain.Table
		status string
	)
	if err := row.Scan(&t.ID, &t.Number, &t.Name, &t.Capacity, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.Status(status)
	return &t, nil
}

var _ Repository = (*PostgresRepository)(nil)
