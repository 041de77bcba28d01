package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"

	"policysonar/backend/internal/telemetry"
)

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if em == nil {
		t.Fatal("NewEventEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), telemetry.Event{Action: "auth.login"}); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
}

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec otellog.Record
}

func (r *recordCapture) Emit(ctx context.Context, rec otellog.Record) {
	r.rec = rec
}

func captureAttrs(rec otellog.Record) map[string]string {
	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	return attrs
}

func TestEmit_AttributeAndBodyMapping(t *testing.T) {
	cap := &recordCapture{}
	em := newEventEmitterWithLogger(cap)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := telemetry.Event{
		UserID:    "user-1",
		SessionID: "sess-1",
		Action:    "auth.login",
		Detail:    "password login",
		At:        at,
	}
	if err := em.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := cap.rec

	if rec.Timestamp() != at {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), at)
	}
	if rec.Body().Empty() {
		t.Error("body should be set when detail is non-empty")
	}
	if got := rec.Body().AsString(); got != "password login" {
		t.Errorf("body = %q, want %q", got, "password login")
	}

	attrs := captureAttrs(rec)
	want := map[string]string{
		"action": "auth.login", "user_id": "user-1", "session_id": "sess-1",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attr %q = %q, want %q", k, attrs[k], v)
		}
	}
}

func TestEmit_EmptyFieldsOmitted(t *testing.T) {
	cap := &recordCapture{}
	em := newEventEmitterWithLogger(cap)
	if err := em.Emit(context.Background(), telemetry.Event{Action: "auth.logout"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := cap.rec

	if !rec.Body().Empty() {
		t.Error("body should be empty when detail is empty")
	}
	attrs := captureAttrs(rec)
	if attrs["action"] != "auth.logout" {
		t.Errorf("action = %q, want %q", attrs["action"], "auth.logout")
	}
	if _, ok := attrs["user_id"]; ok {
		t.Errorf("user_id should not be set, got %q", attrs["user_id"])
	}
	if _, ok := attrs["session_id"]; ok {
		t.Errorf("session_id should not be set, got %q", attrs["session_id"])
	}
}

func TestEmit_ZeroTimestamp_SetsCurrentTime(t *testing.T) {
	cap := &recordCapture{}
	em := newEventEmitterWithLogger(cap)
	before := time.Now().UTC()
	if err := em.Emit(context.Background(), telemetry.Event{Action: "auth.register"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	after := time.Now().UTC()
	ts := cap.rec.Timestamp()
	if ts.Before(before) || ts.After(after) {
		t.Errorf("timestamp = %v, should be between %v and %v", ts, before, after)
	}
}
