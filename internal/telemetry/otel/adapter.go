package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"restaurant-pos/backend/internal/telemetry"
	"restaurant-pos/backend/internal/telemetry/domain"
)

// recordEmitter is the subset of otellog.Logger used by the emitter.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends telemetry records as OTel log records via the given
// LoggerProvider. If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("pos.telemetry")}
}

// NewEventEmitterWithLogger returns an EventEmitter that writes to logger directly.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.Record) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the record to an OTel log record: payload as body, kind/name/path as attributes.
func (e *otelEmitter) Emit(ctx context.Context, in *domain.Record) error {
	if in == nil {
		return nil
	}
	rec := otellog.Record{}
	if !in.Timestamp.IsZero() {
		rec.SetTimestamp(in.Timestamp)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if len(in.Payload) > 0 {
		rec.SetBody(otellog.BytesValue(in.Payload))
	}
	if in.Kind == domain.KindError {
		rec.SetSeverity(otellog.SeverityError)
		rec.SetSeverityText("ERROR")
	} else {
		rec.SetSeverity(otellog.SeverityInfo)
		rec.SetSeverityText("INFO")
	}
	if in.Kind != "" {
		rec.AddAttributes(otellog.String("telemetry.kind", string(in.Kind)))
	}
	if in.Name != "" {
		rec.AddAttributes(otellog.String("telemetry.name", in.Name))
	}
	if in.Path != "" {
		rec.AddAttributes(otellog.String("telemetry.path", in.Path))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
