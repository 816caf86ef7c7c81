package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"barangaylink/pkg/requestcontext"
)

// Recorder is what domain services emit through. It enriches events from the
// request context and appends to the outbox. Emission is best-effort: an
// outbox failure is logged, never surfaced to the citizen.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

func (r *Recorder) Emit(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	caller := requestcontext.Caller(ctx)
	if event.ActorID == "" && !caller.ID.IsNil() {
		event.ActorID = caller.ID.String()
		event.ActorRole = string(caller.Role)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}

	if err := r.store.Append(ctx, event); err != nil {
		r.logger.ErrorContext(ctx, "audit append failed",
			"action", event.Action,
			"error", err,
		)
	}
}
