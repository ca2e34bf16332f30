package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/sqlutil"
)

type Repository struct {
	q sqlutil.DBTX
	// pool is set only on the root repository; multi-table operations that
	// need their own transaction require it.
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool, pool: pool}
}

// WithTx returns a copy of the repository bound to tx.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{q: tx}
}

const draftColumns = `id, host_id, mode, status, settings, current_turn,
	paused_remaining_sec, started_at, completed_at, created_at, updated_at`

func (r *Repository) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	settingsBytes, err := json.Marshal(req.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft settings: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO drafts (id, host_id, mode, status, settings, current_turn)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING `+draftColumns,
		req.ID, req.HostID, string(req.Mode), string(models.DraftStatusWaiting), settingsBytes,
	)
	draft, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	return draft, nil
}

func (r *Repository) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	row := r.q.QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id)
	draft, err := scanDraft(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return draft, nil
}

func (r *Repository) UpdateDraftStatus(ctx context.Context, id uuid.UUID, status models.DraftStatus) (*models.Draft, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE drafts SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+draftColumns,
		id, string(status),
	)
	draft, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update draft status: %w", err)
	}
	return draft, nil
}

func (r *Repository) UpdateSettings(ctx context.Context, id uuid.UUID, settings models.DraftSettings) (*models.Draft, error) {
	settingsBytes, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft settings: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		UPDATE drafts SET settings = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+draftColumns,
		id, settingsBytes,
	)
	draft, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update draft settings: %w", err)
	}
	return draft, nil
}

// StartDraft moves a waiting draft onto its first turn. The status predicate
// makes concurrent start attempts collapse to a single winner.
func (r *Repository) StartDraft(ctx context.Context, id uuid.UUID, startedAt time.Time) (*models.Draft, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE drafts
		SET status = $2, current_turn = 1, started_at = $3, updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+draftColumns,
		id, string(models.DraftStatusDrafting), startedAt, string(models.DraftStatusWaiting),
	)
	draft, err := scanDraft(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrDraftNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("failed to start draft: %w", err)
	}
	return draft, nil
}

// PauseDraft suspends a drafting session, preserving the live deadline's
// remaining seconds so resume does not restart the full clock.
func (r *Repository) PauseDraft(ctx context.Context, id uuid.UUID, remainingSec *int) (*models.Draft, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE drafts
		SET status = $2, paused_remaining_sec = $3, next_deadline = NULL, updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+draftColumns,
		id, string(models.DraftStatusPaused), remainingSec, string(models.DraftStatusDrafting),
	)
	draft, err := scanDraft(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrDraftNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pause draft: %w", err)
	}
	return draft, nil
}

// ResumeDraft restores a paused draft to drafting and rearms the deadline.
func (r *Repository) ResumeDraft(ctx context.Context, id uuid.UUID, deadline *time.Time) (*models.Draft, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE drafts
		SET status = $2, paused_remaining_sec = NULL, next_deadline = $3, updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+draftColumns,
		id, string(models.DraftStatusDrafting), deadline, string(models.DraftStatusPaused),
	)
	draft, err := scanDraft(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrDraftNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resume draft: %w", err)
	}
	return draft, nil
}

func (r *Repository) CompleteDraft(ctx context.Context, id uuid.UUID, completedAt time.Time) (*models.Draft, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE drafts
		SET status = $2, completed_at = $3, next_deadline = NULL, updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+draftColumns,
		id, string(models.DraftStatusCompleted), completedAt, string(models.DraftStatusDrafting),
	)
	draft, err := scanDraft(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrDraftNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete draft: %w", err)
	}
	return draft, nil
}

// ResetDraftCascade wipes all drafted state for a session in one
// transaction: bids, auctions, picks, team ledgers, wishlist availability,
// then the draft row itself back to waiting.
func (r *Repository) ResetDraftCascade(ctx context.Context, id uuid.UUID, undoQuota int) (*models.Draft, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("reset requires the root repository")
	}

	var draft *models.Draft
	err := sqlutil.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		steps := []string{
			`DELETE FROM bids WHERE auction_id IN (SELECT id FROM auctions WHERE draft_id = $1)`,
			`DELETE FROM auctions WHERE draft_id = $1`,
			`DELETE FROM picks WHERE draft_id = $1`,
			`UPDATE wishlist_items SET is_available = TRUE
				WHERE team_id IN (SELECT id FROM teams WHERE draft_id = $1)`,
		}
		for _, stmt := range steps {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE teams
			SET budget_remaining = budget_total, roster_size = 0, undos_remaining = $2
			WHERE draft_id = $1`,
			id, undoQuota,
		); err != nil {
			return err
		}

		var err error
		draft, err = r.WithTx(tx).resetDraftRow(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset draft: %w", err)
	}
	return draft, nil
}

// resetDraftRow restores the draft row itself to waiting.
func (r *Repository) resetDraftRow(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE drafts
		SET status = $2, current_turn = 0, started_at = NULL, completed_at = NULL,
			paused_remaining_sec = NULL, next_deadline = NULL, updated_at = now()
		WHERE id = $1
		RETURNING `+draftColumns,
		id, string(models.DraftStatusWaiting),
	)
	draft, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("failed to reset draft: %w", err)
	}
	return draft, nil
}

func (r *Repository) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM drafts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// FetchNextDeadline returns the soonest pick deadline across all drafting
// sessions, or nil when nothing is armed.
func (r *Repository) FetchNextDeadline(ctx context.Context) (*NextDeadline, error) {
	var nd NextDeadline
	err := r.q.QueryRow(ctx, `
		SELECT id, next_deadline FROM drafts
		WHERE status = $1 AND next_deadline IS NOT NULL
		ORDER BY next_deadline
		LIMIT 1`,
		string(models.DraftStatusDrafting),
	).Scan(&nd.DraftID, &nd.Deadline)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next deadline: %w", err)
	}
	return &nd, nil
}

// FetchDraftsDueForPick returns drafting sessions whose deadline has passed.
func (r *Repository) FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id FROM drafts
		WHERE status = $1 AND next_deadline IS NOT NULL AND next_deadline <= $2
		ORDER BY next_deadline
		LIMIT $3`,
		string(models.DraftStatusDrafting), now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch drafts due for pick: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan draft id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) UpdateNextDeadline(ctx context.Context, draftID uuid.UUID, deadline *time.Time) error {
	_, err := r.q.Exec(ctx,
		`UPDATE drafts SET next_deadline = $2, updated_at = now() WHERE id = $1`,
		draftID, deadline,
	)
	if err != nil {
		return fmt.Errorf("failed to update next deadline: %w", err)
	}
	return nil
}

func (r *Repository) ClearNextDeadline(ctx context.Context, draftID uuid.UUID) error {
	return r.UpdateNextDeadline(ctx, draftID, nil)
}

// GetNextDeadlineFor reads the armed deadline for one draft.
func (r *Repository) GetNextDeadlineFor(ctx context.Context, draftID uuid.UUID) (*time.Time, error) {
	var deadline *time.Time
	err := r.q.QueryRow(ctx,
		`SELECT next_deadline FROM drafts WHERE id = $1`, draftID,
	).Scan(&deadline)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deadline: %w", err)
	}
	return deadline, nil
}

func scanDraft(row pgx.Row) (*models.Draft, error) {
	var d models.Draft
	var mode, status string
	var settingsBytes []byte
	err := row.Scan(
		&d.ID, &d.HostID, &mode, &status, &settingsBytes, &d.CurrentTurn,
		&d.PausedRemainingSec, &d.StartedAt, &d.CompletedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Mode = models.DraftMode(mode)
	d.Status = models.DraftStatus(status)
	if err := json.Unmarshal(settingsBytes, &d.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft settings: %w", err)
	}
	return &d, nil
}
