package standings

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftarena/draftarena/go/internal/models"
)

// StandingsRepository defines what the app layer needs from storage.
type StandingsRepository interface {
	ReplaceStandings(ctx context.Context, leagueID uuid.UUID, table []models.Standing) error
	GetStandings(ctx context.Context, leagueID uuid.UUID) ([]models.Standing, error)
}

// LeagueApp provides the league roster and its completed results.
type LeagueApp interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
	ListCompletedMatches(ctx context.Context, leagueID uuid.UUID) ([]models.Match, error)
}

// App recomputes and serves league tables.
type App struct {
	repo    StandingsRepository
	leagues LeagueApp
}

func NewApp(repo StandingsRepository, leagues LeagueApp) *App {
	return &App{repo: repo, leagues: leagues}
}

// Recompute rebuilds the league table from every completed result and
// persists it. Safe to call after every recorded match.
func (a *App) Recompute(ctx context.Context, leagueID uuid.UUID) ([]models.Standing, error) {
	league, err := a.leagues.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	matches, err := a.leagues.ListCompletedMatches(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	table := Fold(league.TeamIDs, matches)
	for i := range table {
		table[i].LeagueID = leagueID
	}

	if err := a.repo.ReplaceStandings(ctx, leagueID, table); err != nil {
		return nil, err
	}

	log.Info().
		Str("league_id", leagueID.String()).
		Int("teams", len(table)).
		Int("results", len(matches)).
		Msg("standings recomputed")
	return table, nil
}

// GetStandings returns the persisted table in rank order.
func (a *App) GetStandings(ctx context.Context, leagueID uuid.UUID) ([]models.Standing, error) {
	return a.repo.GetStandings(ctx, leagueID)
}
