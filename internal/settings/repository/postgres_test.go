package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/backend/internal/settings/domain"
)

var defaults = domain.Settings{RestaurantName: "Restaurant", TaxRateBps: 0, Currency: "USD"}

func TestGet_MergesStoredKeys(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT key, value_json, updated_at FROM settings`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value_json", "updated_at"}).
			AddRow("restaurant_name", `"Trattoria"`, at).
			AddRow("tax_rate_bps", `825`, at.Add(-time.Hour)).
			AddRow("currency", `not json`, at.Add(-time.Hour)).
			AddRow("unknown", `1`, at.Add(time.Hour)))

	got, err := NewPostgresRepository(conn).Get(context.Background(), defaults)
	require.NoError(t, err)
	assert.Equal(t, "Trattoria", got.RestaurantName)
	assert.Equal(t, 825, got.TaxRateBps)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, at, got.UpdatedAt)
}

func TestPut_UpsertsInTransaction(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	at := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO settings`).WithArgs("restaurant_name", `"Cafe"`, at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO settings`).WithArgs("tax_rate_bps", `700`, at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO settings`).WithArgs("currency", `"GBP"`, at).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = NewPostgresRepository(conn).Put(context.Background(), domain.Settings{RestaurantName: "Cafe", TaxRateBps: 700, Currency: "GBP"}, at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
