package telemetry

import (
	"context"
	"sync"
	"time"

	"restaurant-pos/backend/internal/logging"
	"restaurant-pos/backend/internal/telemetry/domain"
)

// emitTimeout is the max time allowed for a single async emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration bounds how long shutdown waits for in-flight async emits. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// Async runs emits in goroutines so the caller is not blocked, and tracks them so shutdown can drain.
type Async struct {
	emitter EventEmitter
	log     logging.Logger
	wg      sync.WaitGroup
}

// NewAsync wraps emitter. emitter may be nil; then Emit is a no-op.
func NewAsync(emitter EventEmitter, log logging.Logger) *Async {
	if log == nil {
		log = logging.Nop()
	}
	return &Async{emitter: emitter, log: log}
}

// Emit sends rec in a goroutine with emitTimeout. The goroutine uses context.Background() so
// request cancellation does not abort the emit. Errors are logged.
func (a *Async) Emit(rec *domain.Record) {
	if a == nil || a.emitter == nil || rec == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := a.emitter.Emit(ctx, rec); err != nil {
			a.log.Warn(ctx, "telemetry: async emit failed", "kind", rec.Kind, "name", rec.Name, "error", err)
		}
	}()
}

// Drain waits for in-flight emits or until ctx is done.
func (a *Async) Drain(ctx context.Context) error {
	if a == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
