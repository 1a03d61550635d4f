package repository

import (
	"context"
	"errors"
	"time"

	"restaurant-pos/backend/internal/user/domain"
)

var (
	// ErrEmailTaken is returned by Create and Update when another user has the email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrUserInUse is returned by Delete when orders still reference the user.
	ErrUserInUse = errors.New("user is referenced by orders")
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, f domain.ListFilter, limit, offset int) ([]*domain.User, int, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	// Delete removes the user. Returns false if no row matched.
	Delete(ctx context.Context, id string) (bool, error)
}
