package repository

import (
	"context"

	"restaurant-pos/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// List returns one page of entries, newest first, and the total number of matching entries.
	List(ctx context.Context, f domain.ListFilter, limit, offset int) ([]*domain.AuditLog, int, error)
}
