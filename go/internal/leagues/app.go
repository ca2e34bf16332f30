package leagues

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftarena/draftarena/go/internal/draft/events"
	"github.com/draftarena/draftarena/go/internal/models"
)

// LeagueRepository defines what the app layer needs from storage.
type LeagueRepository interface {
	CreateLeagueWithSchedule(ctx context.Context, league models.League, matches []matchParams) (*models.League, error)
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
	ListLeaguesByDraft(ctx context.Context, draftID uuid.UUID) ([]models.League, error)
	AdvanceWeek(ctx context.Context, leagueID uuid.UUID, fromWeek int) (*models.League, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListMatchesByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Match, error)
	ListMatchesByWeek(ctx context.Context, leagueID uuid.UUID, week int) ([]models.Match, error)
	RecordResult(ctx context.Context, req RecordResultRequest, winnerTeamID *uuid.UUID) (*models.Match, error)
	ListCompletedMatches(ctx context.Context, leagueID uuid.UUID) ([]models.Match, error)
}

// DraftApp defines what the scheduler needs from the draft lifecycle.
type DraftApp interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
}

// TeamApp provides the seeded team list of a draft.
type TeamApp interface {
	ListTeamsByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Team, error)
}

// Outbox defines what the league app needs to emit domain events.
type Outbox interface {
	InsertEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) error
}

// Standings rebuilds a league table after each recorded result.
type Standings interface {
	Recompute(ctx context.Context, leagueID uuid.UUID) ([]models.Standing, error)
}

// App converts completed drafts into scheduled seasons and runs the weekly
// lifecycle.
type App struct {
	repo      LeagueRepository
	drafts    DraftApp
	teams     TeamApp
	outbox    Outbox
	standings Standings
	rng       *rand.Rand
}

func NewApp(repo LeagueRepository, drafts DraftApp, teams TeamApp, outbox Outbox, rng *rand.Rand) *App {
	return &App{
		repo:   repo,
		drafts: drafts,
		teams:  teams,
		outbox: outbox,
		rng:    rng,
	}
}

// AttachStandings wires the table recompute that follows each recorded
// result. Set after construction because the standings app reads its matches
// back through this one.
func (a *App) AttachStandings(s Standings) {
	a.standings = s
}

// CreateLeagueFromDraft schedules a season for a completed draft. With
// SplitConferences and at least four teams, the seeded order is halved into
// two sibling leagues scheduled independently.
func (a *App) CreateLeagueFromDraft(ctx context.Context, req CreateLeagueRequest) ([]models.League, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("league name is required")
	}
	if req.TotalWeeks < 1 {
		return nil, fmt.Errorf("total weeks must be at least 1, got %d", req.TotalWeeks)
	}

	draft, err := a.drafts.GetDraft(ctx, req.DraftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != models.DraftStatusCompleted {
		return nil, fmt.Errorf("draft %s is not completed", req.DraftID)
	}

	teams, err := a.teams.ListTeamsByDraft(ctx, req.DraftID)
	if err != nil {
		return nil, err
	}
	if len(teams) < 2 {
		return nil, fmt.Errorf("need at least 2 teams to schedule, got %d", len(teams))
	}

	seeded := make([]uuid.UUID, len(teams))
	for i, t := range teams {
		seeded[i] = t.ID
	}

	if req.SplitConferences && len(seeded) >= 4 {
		confA, confB := splitBySeed(seeded)
		leagueA, err := a.createLeague(ctx, req, models.LeagueTypeConferenceA, req.Name+" (Conference A)", confA)
		if err != nil {
			return nil, err
		}
		leagueB, err := a.createLeague(ctx, req, models.LeagueTypeConferenceB, req.Name+" (Conference B)", confB)
		if err != nil {
			return nil, err
		}
		return []models.League{*leagueA, *leagueB}, nil
	}

	league, err := a.createLeague(ctx, req, models.LeagueTypeSingle, req.Name, seeded)
	if err != nil {
		return nil, err
	}
	return []models.League{*league}, nil
}

func (a *App) createLeague(ctx context.Context, req CreateLeagueRequest, leagueType models.LeagueType, name string, teamIDs []uuid.UUID) (*models.League, error) {
	leagueID := uuid.New()
	fixtures := buildSchedule(teamIDs, req.TotalWeeks, a.rng)

	matches := make([]matchParams, len(fixtures))
	for i, f := range fixtures {
		matches[i] = matchParams{
			ID:         uuid.New(),
			LeagueID:   leagueID,
			Week:       f.Week,
			HomeTeamID: f.Home,
			AwayTeamID: f.Away,
		}
	}

	league, err := a.repo.CreateLeagueWithSchedule(ctx, models.League{
		ID:         leagueID,
		DraftID:    req.DraftID,
		Name:       name,
		Type:       leagueType,
		TeamIDs:    teamIDs,
		TotalWeeks: req.TotalWeeks,
	}, matches)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("league_id", league.ID.String()).
		Str("draft_id", req.DraftID.String()).
		Str("type", string(leagueType)).
		Int("teams", len(teamIDs)).
		Int("matches", len(matches)).
		Msg("league scheduled")
	return league, nil
}

// GetLeague retrieves a league by ID.
func (a *App) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	return a.repo.GetLeague(ctx, id)
}

func (a *App) ListLeaguesByDraft(ctx context.Context, draftID uuid.UUID) ([]models.League, error) {
	return a.repo.ListLeaguesByDraft(ctx, draftID)
}

func (a *App) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	return a.repo.GetMatch(ctx, id)
}

func (a *App) ListMatchesByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Match, error) {
	return a.repo.ListMatchesByLeague(ctx, leagueID)
}

func (a *App) ListMatchesByWeek(ctx context.Context, leagueID uuid.UUID, week int) ([]models.Match, error) {
	return a.repo.ListMatchesByWeek(ctx, leagueID, week)
}

func (a *App) ListCompletedMatches(ctx context.Context, leagueID uuid.UUID) ([]models.Match, error) {
	return a.repo.ListCompletedMatches(ctx, leagueID)
}

// RecordResult finalizes a fixture and refreshes the league table. Draws
// leave the winner unset.
func (a *App) RecordResult(ctx context.Context, req RecordResultRequest) (*models.Match, error) {
	if req.HomeScore < 0 || req.AwayScore < 0 {
		return nil, fmt.Errorf("scores cannot be negative")
	}

	match, err := a.repo.GetMatch(ctx, req.MatchID)
	if err != nil {
		return nil, err
	}

	var winner *uuid.UUID
	switch {
	case req.HomeScore > req.AwayScore:
		winner = &match.HomeTeamID
	case req.AwayScore > req.HomeScore:
		winner = &match.AwayTeamID
	}

	recorded, err := a.repo.RecordResult(ctx, req, winner)
	if err != nil {
		return nil, err
	}

	if a.standings != nil {
		if _, err := a.standings.Recompute(ctx, recorded.LeagueID); err != nil {
			log.Error().Err(err).
				Str("league_id", recorded.LeagueID.String()).
				Msg("failed to recompute standings after result")
		}
	}

	log.Info().
		Str("match_id", req.MatchID.String()).
		Int("home_score", req.HomeScore).
		Int("away_score", req.AwayScore).
		Msg("result recorded")
	return recorded, nil
}

// AdvanceWeek moves the league to the next week and emits WeekAdvanced.
// Advancing past the final week completes the league.
func (a *App) AdvanceWeek(ctx context.Context, leagueID uuid.UUID) (*models.League, error) {
	league, err := a.repo.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if league.Status != models.LeagueStatusActive {
		return nil, fmt.Errorf("league %s is not active", leagueID)
	}

	advanced, err := a.repo.AdvanceWeek(ctx, leagueID, league.CurrentWeek)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(events.WeekAdvancedPayload{
		LeagueID:    leagueID.String(),
		CurrentWeek: advanced.CurrentWeek,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal week payload: %w", err)
	}
	if err := a.outbox.InsertEvent(ctx, advanced.DraftID, events.TypeWeekAdvanced, payload); err != nil {
		log.Error().Err(err).Str("league_id", leagueID.String()).Msg("failed to insert WeekAdvanced event")
	}

	log.Info().
		Str("league_id", leagueID.String()).
		Int("current_week", advanced.CurrentWeek).
		Msg("week advanced")
	return advanced, nil
}
