package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"restaurant-pos/backend/internal/db"
	"restaurant-pos/backend/internal/settings/domain"
)

const (
	keyRestaurantName = "restaurant_name"
	keyTaxRateBps     = "tax_rate_bps"
	keyCurrency       = "currency"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a settings repository that uses the given db.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Get(ctx context.Context, defaults domain.Settings) (*domain.Settings, error) {
	out := defaults
	rows, err := r.db.QueryContext(ctx, `SELECT key, value_json, updated_at FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key, raw string
			at       time.Time
		)
		if err := rows.Scan(&key, &raw, &at); err != nil {
			return nil, err
		}
		var target any
		switch key {
		case keyRestaurantName:
			target = &out.RestaurantName
		case keyTaxRateBps:
			target = &out.TaxRateBps
		case keyCurrency:
			target = &out.Currency
		default:
			continue
		}
		// A value that does not decode keeps the default.
		_ = json.Unmarshal([]byte(raw), target)
		if at.After(out.UpdatedAt) {
			out.UpdatedAt = at
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PostgresRepository) Put(ctx context.Context, s domain.Settings, at time.Time) error {
	values := map[string]any{
		keyRestaurantName: s.RestaurantName,
		keyTaxRateBps:     s.TaxRateBps,
		keyCurrency:       s.Currency,
	}
	return db.WithTx(ctx, r.db, func(tx db.DBTX) error {
		for _, key := range []string{keyRestaurantName, keyTaxRateBps, keyCurrency} {
			raw, err := json.Marshal(values[key])
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO settings (key, value_json, updated_at) VALUES ($1, $2, $3)
				 ON CONFLICT (key) DO UPDATE SET value_json = EXCLUDED.value_json, updated_at = EXCLUDED.updated_at`,
				key, string(raw), at); err != nil {
				return fmt.Errorf("upsert %s: %w", key, err)
			}
		}
		return nil
	})
}

var _ Repository = (*PostgresRepository)(nil)
