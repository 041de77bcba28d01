package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"policysonar/backend/internal/telemetry"
)

// recordLogger is the part of otellog.Logger the emitter needs.
type recordLogger interface {
	Emit(ctx context.Context, record otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends audit events as OTel log
// records via the given LoggerProvider. If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("policysonar.audit")}
}

func newEventEmitterWithLogger(logger recordLogger) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, telemetry.Event) error { return nil }

type otelEmitter struct {
	logger recordLogger
}

// Emit converts the audit event to an OTel log record and emits it.
func (e *otelEmitter) Emit(ctx context.Context, event telemetry.Event) error {
	rec := otellog.Record{}
	if !event.At.IsZero() {
		rec.SetTimestamp(event.At)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	if event.Detail != "" {
		rec.SetBody(otellog.StringValue(event.Detail))
	}
	if event.Action != "" {
		rec.AddAttributes(otellog.String("action", event.Action))
	}
	if event.UserID != "" {
		rec.AddAttributes(otellog.String("user_id", event.UserID))
	}
	if event.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", event.SessionID))
	}
	e.logger.Emit(ctx, rec)
	return nil
}
