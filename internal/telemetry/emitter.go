package telemetry

import (
	"context"
	"log"
	"time"
)

// Event is an audit record for a security-relevant action such as a login,
// a logout, or a new registration.
type Event struct {
	UserID    string
	SessionID string
	Action    string
	Detail    string
	At        time.Time
}

// EventEmitter emits audit events (e.g. to OTel Logs). Best-effort; callers
// log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event Event) error
}

// EmitAsync runs Emit in a goroutine with a short timeout so the request is
// not blocked. A nil emitter is a no-op. Errors are logged.
func EmitAsync(emitter EventEmitter, event Event) {
	if emitter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}
