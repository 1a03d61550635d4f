package repository

import (
	"context"
	"time"

	"restaurant-pos/backend/internal/settings/domain"
)

// Repository defines access to restaurant settings.
type Repository interface {
	// Get returns stored settings, using defaults for keys that are missing or unparsable.
	Get(ctx context.Context, defaults domain.Settings) (*domain.Settings, error)
	// Put upserts every key of s.
	Put(ctx context.Context, s domain.Settings, at time.Time) error
}
