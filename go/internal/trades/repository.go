package trades

import (
	"context"
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

// OutboxRepository lets the execute transaction append the TradeExecuted
// event atomically with the ownership swap.
type OutboxRepository interface {
	InsertEventTx(ctx context.Context, tx pgx.Tx, draftID uuid.UUID, eventType string, payload []byte) error
}

type Repository struct {
	pool   *pgxpool.Pool
	outbox OutboxRepository
}

func NewRepository(pool *pgxpool.Pool, outbox OutboxRepository) *Repository {
	return &Repository{pool: pool, outbox: outbox}
}

const tradeColumns = `id, league_id, team_a_id, team_b_id, gives_a, gives_b,
	status, requires_approval, approved_at, proposed_at, resolved_at`

func (r *Repository) CreateTrade(ctx context.Context, t models.Trade) (*models.Trade, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO trades (id, league_id, team_a_id, team_b_id, gives_a, gives_b, status, requires_approval)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+tradeColumns,
		t.ID, t.LeagueID, t.TeamAID, t.TeamBID, t.GivesA, t.GivesB,
		string(models.TradeStatusProposed), t.RequiresApproval,
	)
	created, err := scanTrade(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}
	return created, nil
}

func (r *Repository) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id)
	trade, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return trade, nil
}

func (r *Repository) ListTradesByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Trade, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tradeColumns+` FROM trades
		WHERE league_id = $1
		ORDER BY proposed_at DESC`,
		leagueID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	return trades, rows.Err()
}

// TransitionStatus moves a trade between lifecycle states, racing on the
// expected current state. Terminal transitions also stamp resolved_at.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.TradeStatus, resolvedAt *time.Time) (*models.Trade, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE trades SET status = $3, resolved_at = COALESCE($4, resolved_at)
		WHERE id = $1 AND status = $2
		RETURNING `+tradeColumns,
		id, string(from), string(to), resolvedAt,
	)
	trade, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition trade: %w", err)
	}
	return trade, nil
}

// Approve stamps the host sign-off on an accepted trade.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID, approvedAt time.Time) (*models.Trade, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE trades SET approved_at = $2
		WHERE id = $1 AND status = $3 AND approved_at IS NULL
		RETURNING `+tradeColumns,
		id, approvedAt, string(models.TradeStatusAccepted),
	)
	trade, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to approve trade: %w", err)
	}
	return trade, nil
}

// ExecuteTrade swaps ownership of every listed pick in one transaction. Each
// pick transfer is a conditional write on current owner and ACTIVE status;
// any miss aborts the whole exchange, so a trade never half-applies.
func (r *Repository) ExecuteTrade(ctx context.Context, trade *models.Trade, draftID uuid.UUID, eventType string, payload []byte, resolvedAt time.Time) error {
	return sqlutil.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := transferPicks(ctx, tx, trade.GivesA, trade.TeamAID, trade.TeamBID); err != nil {
			return err
		}
		if err := transferPicks(ctx, tx, trade.GivesB, trade.TeamBID, trade.TeamAID); err != nil {
			return err
		}

		if err := adjustRoster(ctx, tx, trade.TeamAID, len(trade.GivesB)-len(trade.GivesA)); err != nil {
			return err
		}
		if err := adjustRoster(ctx, tx, trade.TeamBID, len(trade.GivesA)-len(trade.GivesB)); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE trades SET status = $2, resolved_at = $3
			WHERE id = $1 AND status = $4`,
			trade.ID, string(models.TradeStatusCompleted), resolvedAt,
			string(models.TradeStatusAccepted),
		)
		if err != nil {
			return fault.Infra(fmt.Errorf("failed to complete trade: %w", err))
		}
		if tag.RowsAffected() == 0 {
			return fault.ErrNotFound
		}

		return r.outbox.InsertEventTx(ctx, tx, draftID, eventType, payload)
	})
}

func transferPicks(ctx context.Context, tx pgx.Tx, pickIDs []uuid.UUID, from, to uuid.UUID) error {
	for _, pickID := range pickIDs {
		tag, err := tx.Exec(ctx, `
			UPDATE picks SET team_id = $3
			WHERE id = $1 AND team_id = $2 AND status = $4`,
			pickID, from, to, string(models.PickStatusActive),
		)
		if err != nil {
			return fault.Infra(fmt.Errorf("failed to transfer pick: %w", err))
		}
		if tag.RowsAffected() == 0 {
			return fault.ErrDeadPickInTrade
		}
	}
	return nil
}

func adjustRoster(ctx context.Context, tx pgx.Tx, teamID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	tag, err := tx.Exec(ctx, `
		UPDATE teams SET roster_size = roster_size + $2
		WHERE id = $1 AND roster_size + $2 >= 0`,
		teamID, delta,
	)
	if err != nil {
		return fault.Infra(fmt.Errorf("failed to adjust roster: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("roster adjustment of %d rejected for team %s", delta, teamID)
	}
	return nil
}

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var t models.Trade
	var status string
	err := row.Scan(
		&t.ID, &t.LeagueID, &t.TeamAID, &t.TeamBID, &t.GivesA, &t.GivesB,
		&status, &t.RequiresApproval, &t.ApprovedAt, &t.ProposedAt, &t.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = models.TradeStatus(status)
	return &t, nil
}
