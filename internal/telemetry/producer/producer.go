// Package producer publishes telemetry records to a message broker for the Loki worker.
package producer

import (
	"context"

	"restaurant-pos/backend/internal/telemetry/domain"
)

// Producer emits telemetry records. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single record. Implementations may block briefly; call from a goroutine if needed.
	Emit(ctx context.Context, rec *domain.Record) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}
