package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = 2 * time.Second
)

// Worker drains the outbox to the publisher in batches. Publish failures
// leave events pending for the next tick, so delivery is at-least-once and
// consumers must tolerate duplicates.
type Worker struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger

	batchSize    int
	pollInterval time.Duration
}

func NewWorker(store Store, publisher Publisher, logger *slog.Logger) *Worker {
	return &Worker{
		store:        store,
		publisher:    publisher,
		logger:       logger,
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
	}
}

// Run polls until the context is cancelled. A nil publisher idles: events
// accumulate in the outbox until a sink is configured.
func (w *Worker) Run(ctx context.Context) error {
	if w.publisher == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

func (w *Worker) drainOnce(ctx context.Context) error {
	for {
		batch, err := w.store.PendingBatch(ctx, w.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := w.publisher.Publish(ctx, batch); err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(batch))
		for i, e := range batch {
			ids[i] = e.ID
		}
		if err := w.store.MarkPublished(ctx, ids); err != nil {
			return err
		}
		if len(batch) < w.batchSize {
			return nil
		}
	}
}
