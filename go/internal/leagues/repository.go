package leagues

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/sqlutil"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leagueColumns = `id, draft_id, name, type, status, team_ids, total_weeks, current_week, created_at`
const matchColumns = `id, league_id, week, home_team_id, away_team_id, status, home_score, away_score, winner_team_id, created_at`

// CreateLeagueWithSchedule persists a league and its full fixture list in
// one transaction, so a league never exists half-scheduled.
func (r *Repository) CreateLeagueWithSchedule(ctx context.Context, league models.League, matches []matchParams) (*models.League, error) {
	var created *models.League
	err := sqlutil.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO leagues (id, draft_id, name, type, status, team_ids, total_weeks, current_week)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
			RETURNING `+leagueColumns,
			league.ID, league.DraftID, league.Name, string(league.Type),
			string(models.LeagueStatusActive), league.TeamIDs, league.TotalWeeks,
		)
		var err error
		created, err = scanLeague(row)
		if err != nil {
			return fmt.Errorf("failed to create league: %w", err)
		}

		for _, m := range matches {
			if _, err := tx.Exec(ctx, `
				INSERT INTO matches (id, league_id, week, home_team_id, away_team_id, status)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				m.ID, m.LeagueID, m.Week, m.HomeTeamID, m.AwayTeamID,
				string(models.MatchStatusScheduled),
			); err != nil {
				return fmt.Errorf("failed to insert match: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leagueColumns+` FROM leagues WHERE id = $1`, id)
	league, err := scanLeague(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return league, nil
}

func (r *Repository) ListLeaguesByDraft(ctx context.Context, draftID uuid.UUID) ([]models.League, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leagueColumns+` FROM leagues
		WHERE draft_id = $1
		ORDER BY type`,
		draftID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	defer rows.Close()

	var leagues []models.League
	for rows.Next() {
		league, err := scanLeague(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, *league)
	}
	return leagues, rows.Err()
}

// AdvanceWeek bumps current_week by one, racing on the expected value so two
// concurrent advances move the league exactly one week. The week may point
// one past the final week; reaching there completes the league.
func (r *Repository) AdvanceWeek(ctx context.Context, leagueID uuid.UUID, fromWeek int) (*models.League, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leagues
		SET current_week = current_week + 1,
			status = CASE WHEN current_week + 1 > total_weeks THEN $3 ELSE status END
		WHERE id = $1 AND current_week = $2 AND current_week <= total_weeks
		RETURNING `+leagueColumns,
		leagueID, fromWeek, string(models.LeagueStatusCompleted),
	)
	league, err := scanLeague(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrWrongTurn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to advance week: %w", err)
	}
	return league, nil
}

func (r *Repository) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	match, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

func (r *Repository) ListMatchesByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Match, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE league_id = $1
		ORDER BY week, created_at`,
		leagueID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

func (r *Repository) ListMatchesByWeek(ctx context.Context, leagueID uuid.UUID, week int) ([]models.Match, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE league_id = $1 AND week = $2
		ORDER BY created_at`,
		leagueID, week,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list week matches: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

// RecordResult finalizes a scheduled match. The status predicate makes the
// write first-wins; a second submission for the same match changes nothing.
func (r *Repository) RecordResult(ctx context.Context, req RecordResultRequest, winnerTeamID *uuid.UUID) (*models.Match, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE matches
		SET status = $2, home_score = $3, away_score = $4, winner_team_id = $5
		WHERE id = $1 AND status = $6
		RETURNING `+matchColumns,
		req.MatchID, string(models.MatchStatusCompleted),
		req.HomeScore, req.AwayScore, winnerTeamID,
		string(models.MatchStatusScheduled),
	)
	match, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}
	return match, nil
}

// ListCompletedMatches returns every finished fixture in a league, the raw
// input for standings.
func (r *Repository) ListCompletedMatches(ctx context.Context, leagueID uuid.UUID) ([]models.Match, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE league_id = $1 AND status = $2
		ORDER BY week`,
		leagueID, string(models.MatchStatusCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed matches: %w", err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

func collectMatches(rows pgx.Rows) ([]models.Match, error) {
	var matches []models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, *match)
	}
	return matches, rows.Err()
}

func scanLeague(row pgx.Row) (*models.League, error) {
	var league models.League
	var leagueType, status string
	err := row.Scan(
		&league.ID, &league.DraftID, &league.Name, &leagueType, &status,
		&league.TeamIDs, &league.TotalWeeks, &league.CurrentWeek, &league.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	league.Type = models.LeagueType(leagueType)
	league.Status = models.LeagueStatus(status)
	return &league, nil
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	var match models.Match
	var status string
	err := row.Scan(
		&match.ID, &match.LeagueID, &match.Week, &match.HomeTeamID, &match.AwayTeamID,
		&status, &match.HomeScore, &match.AwayScore, &match.WinnerTeamID, &match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	match.Status = models.MatchStatus(status)
	return &match, nil
}
