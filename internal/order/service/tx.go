package service

import (
	"context"

	"restaurant-pos/backend/internal/db"
	menurepo "restaurant-pos/backend/internal/menu/repository"
	orderrepo "restaurant-pos/backend/internal/order/repository"
	tablerepo "restaurant-pos/backend/internal/table/repository"
)

// Repos is the set of repositories one order operation works with.
type Repos struct {
	Orders orderrepo.Repository
	Tables tablerepo.Repository
	Menu   menurepo.Repository
}

// Transactor runs fn with Repos bound to a single transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(r Repos) error) error
}

type postgresTransactor struct {
	conn db.DBTX
}

// NewPostgresTransactor returns a Transactor that opens a transaction on conn per call.
func NewPostgresTransactor(conn db.DBTX) Transactor {
	return &postgresTransactor{conn: conn}
}

func (t *postgresTransactor) InTx(ctx context.Context, fn func(r Repos) error) error {
	return db.WithTx(ctx, t.conn, func(tx db.DBTX) error {
		return fn(Repos{
			Orders: orderrepo.NewPostgresRepository(tx),
			Tables: tablerepo.NewPostgresRepository(tx),
			Menu:   menurepo.NewPostgresRepository(tx),
		})
	})
}
