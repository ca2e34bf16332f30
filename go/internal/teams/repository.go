package teams

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/sqlutil"
)

type Repository struct {
	q sqlutil.DBTX
}

func NewRepository(q sqlutil.DBTX) *Repository {
	return &Repository{q: q}
}

// WithTx returns a copy of the repository bound to tx.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{q: tx}
}

const teamColumns = `id, draft_id, owner_id, name, draft_order_index,
	budget_total, budget_remaining, roster_size, undos_remaining, created_at`

func (r *Repository) CreateTeam(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO teams (id, draft_id, owner_id, name, draft_order_index,
			budget_total, budget_remaining, roster_size, undos_remaining)
		VALUES ($1, $2, $3, $4, $5, $6, $6, 0, $7)
		RETURNING `+teamColumns,
		req.ID, req.DraftID, req.OwnerID, req.Name, req.DraftOrderIndex,
		req.BudgetTotal, req.UndoQuota,
	)
	team, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (r *Repository) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	row := r.q.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	team, err := scanTeam(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

func (r *Repository) GetTeamBySeat(ctx context.Context, draftID uuid.UUID, seat int) (*models.Team, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+teamColumns+` FROM teams
		WHERE draft_id = $1 AND draft_order_index = $2`,
		draftID, seat,
	)
	team, err := scanTeam(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team by seat: %w", err)
	}
	return team, nil
}

func (r *Repository) ListTeamsByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Team, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+teamColumns+` FROM teams
		WHERE draft_id = $1
		ORDER BY draft_order_index`,
		draftID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams by draft: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

// ResetLedgers restores every team in a draft to its full budget and an empty
// roster. Used only by the host's reset-draft command.
func (r *Repository) ResetLedgers(ctx context.Context, draftID uuid.UUID, undoQuota int) error {
	_, err := r.q.Exec(ctx, `
		UPDATE teams
		SET budget_remaining = budget_total, roster_size = 0, undos_remaining = $2
		WHERE draft_id = $1`,
		draftID, undoQuota,
	)
	if err != nil {
		return fmt.Errorf("failed to reset team ledgers: %w", err)
	}
	return nil
}

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	err := row.Scan(
		&t.ID, &t.DraftID, &t.OwnerID, &t.Name, &t.DraftOrderIndex,
		&t.BudgetTotal, &t.BudgetRemaining, &t.RosterSize, &t.UndosRemaining, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
