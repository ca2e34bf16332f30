package pick

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/sqlutil"
	"github.com/draftarena/draftarena/go/internal/teams"
)

const uniqueViolation = "23505"

type Repository struct {
	pool   *pgxpool.Pool
	ledger *teams.Ledger
	outbox OutboxRepository
}

// OutboxRepository lets the pick transaction append domain events atomically
// with the state change.
type OutboxRepository interface {
	InsertEventTx(ctx context.Context, tx pgx.Tx, draftID uuid.UUID, eventType string, payload []byte) error
}

func NewRepository(pool *pgxpool.Pool, ledger *teams.Ledger, outbox OutboxRepository) *Repository {
	return &Repository{pool: pool, ledger: ledger, outbox: outbox}
}

const pickColumns = `id, draft_id, team_id, character_id, cost, round, overall_pick, status, picked_at`

// CommitPick performs the atomic pick commit: advance the turn counter by
// compare-and-swap, insert the pick, and charge the team's ledger, all in one
// transaction. Two concurrent commits for the same turn cannot both pass the
// CAS, which is the at-most-one-pick-per-turn guarantee.
func (r *Repository) CommitPick(ctx context.Context, params CommitPickParams, outboxEvents []PendingEvent) (*models.Pick, error) {
	var committed *models.Pick
	err := sqlutil.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE drafts
			SET current_turn = current_turn + 1, next_deadline = $3, updated_at = now()
			WHERE id = $1 AND current_turn = $2 AND status = $4`,
			params.DraftID, params.Turn, params.NextDeadline, string(models.DraftStatusDrafting),
		)
		if err != nil {
			return fault.Infra(fmt.Errorf("failed to advance turn: %w", err))
		}
		if tag.RowsAffected() == 0 {
			return fault.ErrWrongTurn
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO picks (id, draft_id, team_id, character_id, cost, round, overall_pick, status, picked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+pickColumns,
			params.PickID, params.DraftID, params.TeamID, params.CharacterID,
			params.Cost, params.Round, params.Turn, string(models.PickStatusActive), params.PickedAt,
		)
		committed, err = scanPick(row)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fault.ErrAlreadyDrafted
			}
			return fault.Infra(fmt.Errorf("failed to insert pick: %w", err))
		}

		if err := r.ledger.WithTx(tx).Charge(ctx, params.TeamID, params.Cost, params.RosterSize); err != nil {
			return err
		}

		// Every wishlist referencing this character loses it from the pool.
		if _, err := tx.Exec(ctx, `
			UPDATE wishlist_items SET is_available = FALSE
			WHERE character_id = $2
			  AND team_id IN (SELECT id FROM teams WHERE draft_id = $1)`,
			params.DraftID, params.CharacterID,
		); err != nil {
			return fault.Infra(fmt.Errorf("failed to flag wishlist items: %w", err))
		}

		for _, ev := range outboxEvents {
			if err := r.outbox.InsertEventTx(ctx, tx, params.DraftID, ev.Type, ev.Payload); err != nil {
				return fault.Infra(fmt.Errorf("failed to append outbox event: %w", err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// AdvanceTurnWithoutPick consumes a turn that produced no pick (an explicit
// skip after a timeout with an empty wishlist). Same CAS as CommitPick.
func (r *Repository) AdvanceTurnWithoutPick(ctx context.Context, params SkipTurnParams, outboxEvents []PendingEvent) error {
	return sqlutil.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE drafts
			SET current_turn = current_turn + 1, next_deadline = $3, updated_at = now()
			WHERE id = $1 AND current_turn = $2 AND status = $4`,
			params.DraftID, params.Turn, params.NextDeadline, string(models.DraftStatusDrafting),
		)
		if err != nil {
			return fault.Infra(fmt.Errorf("failed to advance turn: %w", err))
		}
		if tag.RowsAffected() == 0 {
			return fault.ErrWrongTurn
		}

		for _, ev := range outboxEvents {
			if err := r.outbox.InsertEventTx(ctx, tx, params.DraftID, ev.Type, ev.Payload); err != nil {
				return fault.Infra(fmt.Errorf("failed to append outbox event: %w", err))
			}
		}
		return nil
	})
}

// UndoPick reverses a committed pick in one transaction: delete the pick,
// refund the ledger, consume an undo, and rewind the turn counter when the
// undone pick was the globally most recent one.
func (r *Repository) UndoPick(ctx context.Context, params UndoParams, outboxEvents []PendingEvent) error {
	return sqlutil.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var characterID string
		err := tx.QueryRow(ctx, `
			DELETE FROM picks WHERE id = $1 AND team_id = $2
			RETURNING character_id`,
			params.PickID, params.TeamID,
		).Scan(&characterID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fault.ErrNotMostRecentPick
		}
		if err != nil {
			return fault.Infra(fmt.Errorf("failed to delete pick: %w", err))
		}

		boundLedger := r.ledger.WithTx(tx)
		if err := boundLedger.Refund(ctx, params.TeamID, params.Cost); err != nil {
			return err
		}
		if err := boundLedger.ConsumeUndo(ctx, params.TeamID); err != nil {
			return err
		}

		if params.RewindTurn {
			tag, err := tx.Exec(ctx, `
				UPDATE drafts
				SET current_turn = current_turn - 1, next_deadline = $3, updated_at = now()
				WHERE id = $1 AND current_turn = $2 AND status = $4`,
				params.DraftID, params.OverallPick+1, params.NextDeadline, string(models.DraftStatusDrafting),
			)
			if err != nil {
				return fault.Infra(fmt.Errorf("failed to rewind turn: %w", err))
			}
			if tag.RowsAffected() == 0 {
				// Someone picked after the read; the undone pick is no longer
				// the live turn, so the counter stays put.
				return fault.ErrNotMostRecentPick
			}
		}

		// The character returns to the pool.
		if _, err := tx.Exec(ctx, `
			UPDATE wishlist_items SET is_available = TRUE
			WHERE character_id = $2
			  AND team_id IN (SELECT id FROM teams WHERE draft_id = $1)`,
			params.DraftID, characterID,
		); err != nil {
			return fault.Infra(fmt.Errorf("failed to restore wishlist items: %w", err))
		}

		for _, ev := range outboxEvents {
			if err := r.outbox.InsertEventTx(ctx, tx, params.DraftID, ev.Type, ev.Payload); err != nil {
				return fault.Infra(fmt.Errorf("failed to append outbox event: %w", err))
			}
		}
		return nil
	})
}

func (r *Repository) GetPick(ctx context.Context, id uuid.UUID) (*models.Pick, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+pickColumns+` FROM picks WHERE id = $1`, id)
	pick, err := scanPick(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pick: %w", err)
	}
	return pick, nil
}

func (r *Repository) ListPicksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+pickColumns+` FROM picks
		WHERE draft_id = $1
		ORDER BY overall_pick`,
		draftID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()
	return collectPicks(rows)
}

func (r *Repository) ListPicksByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Pick, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+pickColumns+` FROM picks
		WHERE team_id = $1
		ORDER BY overall_pick`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks by team: %w", err)
	}
	defer rows.Close()
	return collectPicks(rows)
}

// LatestPickForTeam returns the team's most recent committed pick.
func (r *Repository) LatestPickForTeam(ctx context.Context, draftID, teamID uuid.UUID) (*models.Pick, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+pickColumns+` FROM picks
		WHERE draft_id = $1 AND team_id = $2
		ORDER BY overall_pick DESC
		LIMIT 1`,
		draftID, teamID,
	)
	pick, err := scanPick(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest pick: %w", err)
	}
	return pick, nil
}

// IsCharacterDrafted reports whether the character already appears in any
// pick for this draft.
func (r *Repository) IsCharacterDrafted(ctx context.Context, draftID uuid.UUID, characterID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM picks WHERE draft_id = $1 AND character_id = $2)`,
		draftID, characterID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check drafted character: %w", err)
	}
	return exists, nil
}

func (r *Repository) CountPicks(ctx context.Context, draftID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM picks WHERE draft_id = $1`, draftID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count picks: %w", err)
	}
	return count, nil
}

// MarkPickDead flags a Nuzlocke casualty; dead picks are excluded from trades.
func (r *Repository) MarkPickDead(ctx context.Context, pickID uuid.UUID) (*models.Pick, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE picks SET status = $2 WHERE id = $1
		RETURNING `+pickColumns,
		pickID, string(models.PickStatusDead),
	)
	pick, err := scanPick(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark pick dead: %w", err)
	}
	return pick, nil
}

// PendingEvent is an outbox row queued for insertion inside a transaction.
type PendingEvent struct {
	Type    string
	Payload []byte
}

func scanPick(row pgx.Row) (*models.Pick, error) {
	var p models.Pick
	var status string
	err := row.Scan(
		&p.ID, &p.DraftID, &p.TeamID, &p.CharacterID, &p.Cost,
		&p.Round, &p.OverallPick, &status, &p.PickedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = models.PickStatus(status)
	return &p, nil
}

func collectPicks(rows pgx.Rows) ([]models.Pick, error) {
	var picks []models.Pick
	for rows.Next() {
		pick, err := scanPick(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, *pick)
	}
	return picks, rows.Err()
}
