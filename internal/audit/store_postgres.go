package audit

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	dErrors "barangaylink/pkg/domain-errors"
)

// PostgresStore is the durable outbox. The event body is stored as JSONB so
// the schema does not chase the Event struct; published_at marks shipping
// progress.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode audit event")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, occurred_at, action, body)
		VALUES ($1, $2, $3, $4)`,
		event.ID.String(), event.Timestamp, string(event.Action), body,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "append audit event")
	}
	return nil
}

func (s *PostgresStore) PendingBatch(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY occurred_at ASC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load pending audit events")
	}
	defer rows.Close()

	var batch []Event
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "scan audit event")
		}
		var e Event
		if err := json.Unmarshal(body, &e); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "decode audit event")
		}
		batch = append(batch, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load pending audit events")
	}
	return batch, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = NOW()
		WHERE id = ANY($1)`,
		strs,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "mark audit events published")
	}
	return nil
}
