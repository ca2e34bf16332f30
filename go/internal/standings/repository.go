package standings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/sqlutil"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ReplaceStandings swaps in a freshly computed table for the league.
func (r *Repository) ReplaceStandings(ctx context.Context, leagueID uuid.UUID, table []models.Standing) error {
	return sqlutil.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM standings WHERE league_id = $1`, leagueID); err != nil {
			return fmt.Errorf("failed to clear standings: %w", err)
		}
		for _, s := range table {
			if _, err := tx.Exec(ctx, `
				INSERT INTO standings (league_id, team_id, wins, losses, draws, points_for, points_against, rank, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
				leagueID, s.TeamID, s.Wins, s.Losses, s.Draws,
				s.PointsFor, s.PointsAgainst, s.Rank,
			); err != nil {
				return fmt.Errorf("failed to insert standing: %w", err)
			}
		}
		return nil
	})
}

// GetStandings returns the league table in rank order.
func (r *Repository) GetStandings(ctx context.Context, leagueID uuid.UUID) ([]models.Standing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT league_id, team_id, wins, losses, draws, points_for, points_against, rank, updated_at
		FROM standings
		WHERE league_id = $1
		ORDER BY rank`,
		leagueID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get standings: %w", err)
	}
	defer rows.Close()

	var table []models.Standing
	for rows.Next() {
		var s models.Standing
		if err := rows.Scan(
			&s.LeagueID, &s.TeamID, &s.Wins, &s.Losses, &s.Draws,
			&s.PointsFor, &s.PointsAgainst, &s.Rank, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan standing: %w", err)
		}
		table = append(table, s)
	}
	return table, rows.Err()
}
