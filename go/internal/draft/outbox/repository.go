package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/draftarena/draftarena/go/internal/sqlutil"
)

// Repository is the write side of the outbox. Reads and relay bookkeeping
// live in the Worker, which runs on its own connection.
type Repository struct {
	q sqlutil.DBTX
}

func NewRepository(q sqlutil.DBTX) *Repository {
	return &Repository{q: q}
}

// InsertEvent appends an event outside any caller transaction. Used for
// lifecycle events whose state change is itself a single statement.
func (r *Repository) InsertEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO draft_outbox (id, draft_id, event_type, payload)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), draftID, eventType, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}

// InsertEventTx appends an event inside the caller's transaction, so the
// event exists if and only if the state change commits.
func (r *Repository) InsertEventTx(ctx context.Context, tx pgx.Tx, draftID uuid.UUID, eventType string, payload []byte) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO draft_outbox (id, draft_id, event_type, payload)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), draftID, eventType, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return nil
}
