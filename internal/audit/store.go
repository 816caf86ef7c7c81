package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store is the audit outbox. Append is called inside request handling;
// PendingBatch/MarkPublished drive the shipping worker.
type Store interface {
	Append(ctx context.Context, event Event) error
	PendingBatch(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}
