package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/backend/internal/category/domain"
)

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewPostgresRepository(conn), mock
}

func TestList_ActiveOnly(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`FROM categories WHERE \(NOT \$1 OR active\) ORDER BY sort_order, name`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "sort_order", "active", "created_at", "updated_at"}).
			AddRow("c1", "Starters", "", 1, true, now, now))
	list, err := repo.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Starters", list[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateName(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO categories`).WillReturnError(&pgconn.PgError{Code: "23505"})
	err := repo.Create(context.Background(), &domain.Category{ID: "c1", Name: "Drinks"})
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestDelete_ForeignKey(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM categories WHERE id = \$1`).WithArgs("c1").
		WillReturnError(&pgconn.PgError{Code: "23503"})
	_, err := repo.Delete(context.Background(), "c1")
	assert.ErrorIs(t, err, ErrHasItems)
}

func TestCountItems(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM menu_items WHERE category_id = \$1`).WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	n, err := repo.CountItems(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
