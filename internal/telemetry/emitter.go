// Package telemetry forwards stored telemetry records to downstream sinks (OTel logs, Kafka).
package telemetry

import (
	"context"
	"errors"

	"restaurant-pos/backend/internal/telemetry/domain"
)

// EventEmitter emits telemetry records. Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, rec *domain.Record) error
}

// Multi returns an EventEmitter that sends each record to every non-nil emitter and joins their errors.
func Multi(emitters ...EventEmitter) EventEmitter {
	out := make(multiEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

type multiEmitter []EventEmitter

func (m multiEmitter) Emit(ctx context.Context, rec *domain.Record) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
