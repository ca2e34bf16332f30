package leagues

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/models"
)

type fakeLeagueRepo struct {
	leagues map[uuid.UUID]*models.League
	matches map[uuid.UUID][]matchParams
	match   *models.Match
}

func (r *fakeLeagueRepo) CreateLeagueWithSchedule(ctx context.Context, league models.League, matches []matchParams) (*models.League, error) {
	league.Status = models.LeagueStatusActive
	league.CurrentWeek = 1
	stored := league
	r.leagues[league.ID] = &stored
	r.matches[league.ID] = matches
	return &stored, nil
}

func (r *fakeLeagueRepo) GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error) {
	l, ok := r.leagues[id]
	if !ok {
		return nil, fault.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *fakeLeagueRepo) ListLeaguesByDraft(ctx context.Context, draftID uuid.UUID) ([]models.League, error) {
	return nil, nil
}

// AdvanceWeek mirrors the store's compare-and-swap on current_week.
func (r *fakeLeagueRepo) AdvanceWeek(ctx context.Context, leagueID uuid.UUID, fromWeek int) (*models.League, error) {
	l, ok := r.leagues[leagueID]
	if !ok || l.CurrentWeek != fromWeek || l.CurrentWeek > l.TotalWeeks {
		return nil, fault.ErrWrongTurn
	}
	l.CurrentWeek++
	if l.CurrentWeek > l.TotalWeeks {
		l.Status = models.LeagueStatusCompleted
	}
	copied := *l
	return &copied, nil
}

func (r *fakeLeagueRepo) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	if r.match == nil || r.match.ID != id {
		return nil, fault.ErrNotFound
	}
	copied := *r.match
	return &copied, nil
}

func (r *fakeLeagueRepo) ListMatchesByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Match, error) {
	return nil, nil
}

func (r *fakeLeagueRepo) ListMatchesByWeek(ctx context.Context, leagueID uuid.UUID, week int) ([]models.Match, error) {
	return nil, nil
}

func (r *fakeLeagueRepo) RecordResult(ctx context.Context, req RecordResultRequest, winnerTeamID *uuid.UUID) (*models.Match, error) {
	if r.match == nil || r.match.ID != req.MatchID {
		return nil, fault.ErrNotFound
	}
	r.match.Status = models.MatchStatusCompleted
	r.match.HomeScore = &req.HomeScore
	r.match.AwayScore = &req.AwayScore
	r.match.WinnerTeamID = winnerTeamID
	copied := *r.match
	return &copied, nil
}

func (r *fakeLeagueRepo) ListCompletedMatches(ctx context.Context, leagueID uuid.UUID) ([]models.Match, error) {
	return nil, nil
}

type stubDrafts struct {
	draft *models.Draft
}

func (d *stubDrafts) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	return d.draft, nil
}

type stubTeams struct {
	teams []models.Team
}

func (t *stubTeams) ListTeamsByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Team, error) {
	return t.teams, nil
}

type stubOutbox struct {
	events []string
}

func (o *stubOutbox) InsertEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) error {
	o.events = append(o.events, eventType)
	return nil
}

func newLeagueFixture(t *testing.T, teamCount int) (*App, *fakeLeagueRepo, *stubOutbox, *models.Draft) {
	t.Helper()
	draft := &models.Draft{ID: uuid.New(), Status: models.DraftStatusCompleted}
	teams := make([]models.Team, teamCount)
	for i := range teams {
		teams[i] = models.Team{ID: uuid.New(), DraftID: draft.ID, DraftOrderIndex: i + 1}
	}

	repo := &fakeLeagueRepo{
		leagues: make(map[uuid.UUID]*models.League),
		matches: make(map[uuid.UUID][]matchParams),
	}
	outbox := &stubOutbox{}
	rng := rand.New(rand.NewSource(1))
	app := NewApp(repo, &stubDrafts{draft: draft}, &stubTeams{teams: teams}, outbox, rng)
	return app, repo, outbox, draft
}

func TestCreateLeagueFromDraftSchedulesSeason(t *testing.T) {
	app, repo, _, draft := newLeagueFixture(t, 6)

	created, err := app.CreateLeagueFromDraft(context.Background(), CreateLeagueRequest{
		DraftID:    draft.ID,
		Name:       "Kanto Cup",
		TotalWeeks: 5,
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	league := created[0]
	require.Equal(t, models.LeagueTypeSingle, league.Type)
	require.Equal(t, models.LeagueStatusActive, league.Status)
	require.Equal(t, 1, league.CurrentWeek)
	require.Len(t, league.TeamIDs, 6)
	require.Len(t, repo.matches[league.ID], 15)
}

func TestCreateLeagueFromDraftSplitsConferences(t *testing.T) {
	app, repo, _, draft := newLeagueFixture(t, 8)

	created, err := app.CreateLeagueFromDraft(context.Background(), CreateLeagueRequest{
		DraftID:          draft.ID,
		Name:             "Kanto Cup",
		TotalWeeks:       3,
		SplitConferences: true,
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	require.Equal(t, models.LeagueTypeConferenceA, created[0].Type)
	require.Equal(t, models.LeagueTypeConferenceB, created[1].Type)
	require.Equal(t, "Kanto Cup (Conference A)", created[0].Name)
	require.Len(t, created[0].TeamIDs, 4)
	require.Len(t, created[1].TeamIDs, 4)

	// Conference schedules never cross the divide.
	confA := make(map[uuid.UUID]bool)
	for _, id := range created[0].TeamIDs {
		confA[id] = true
	}
	for _, m := range repo.matches[created[1].ID] {
		if confA[m.HomeTeamID] || confA[m.AwayTeamID] {
			t.Fatal("conference B fixture includes a conference A team")
		}
	}
}

func TestCreateLeagueFromDraftTooFewTeamsForSplit(t *testing.T) {
	app, _, _, draft := newLeagueFixture(t, 3)

	// Below four teams the split flag falls back to a single league.
	created, err := app.CreateLeagueFromDraft(context.Background(), CreateLeagueRequest{
		DraftID:          draft.ID,
		Name:             "Tiny Cup",
		TotalWeeks:       2,
		SplitConferences: true,
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, models.LeagueTypeSingle, created[0].Type)
}

func TestCreateLeagueFromDraftRequiresCompletedDraft(t *testing.T) {
	app, _, _, draft := newLeagueFixture(t, 4)
	draft.Status = models.DraftStatusDrafting

	_, err := app.CreateLeagueFromDraft(context.Background(), CreateLeagueRequest{
		DraftID:    draft.ID,
		Name:       "Kanto Cup",
		TotalWeeks: 5,
	})
	require.Error(t, err)
}

type stubStandings struct {
	recomputed []uuid.UUID
}

func (s *stubStandings) Recompute(ctx context.Context, leagueID uuid.UUID) ([]models.Standing, error) {
	s.recomputed = append(s.recomputed, leagueID)
	return nil, nil
}

// Recording a result must also refresh the league table, not leave it to a
// second call the caller has to remember.
func TestRecordResultTriggersStandingsRecompute(t *testing.T) {
	app, repo, _, _ := newLeagueFixture(t, 4)
	table := &stubStandings{}
	app.AttachStandings(table)

	leagueID := uuid.New()
	home, away := uuid.New(), uuid.New()
	repo.match = &models.Match{
		ID:         uuid.New(),
		LeagueID:   leagueID,
		Week:       1,
		HomeTeamID: home,
		AwayTeamID: away,
		Status:     models.MatchStatusScheduled,
	}

	recorded, err := app.RecordResult(context.Background(), RecordResultRequest{
		MatchID:   repo.match.ID,
		HomeScore: 3,
		AwayScore: 1,
	})
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusCompleted, recorded.Status)
	require.Equal(t, home, *recorded.WinnerTeamID)
	require.Equal(t, []uuid.UUID{leagueID}, table.recomputed)
}

func TestAdvanceWeekWalksToCompletion(t *testing.T) {
	app, _, outbox, draft := newLeagueFixture(t, 4)
	created, err := app.CreateLeagueFromDraft(context.Background(), CreateLeagueRequest{
		DraftID:    draft.ID,
		Name:       "Kanto Cup",
		TotalWeeks: 2,
	})
	require.NoError(t, err)
	leagueID := created[0].ID

	advanced, err := app.AdvanceWeek(context.Background(), leagueID)
	require.NoError(t, err)
	require.Equal(t, 2, advanced.CurrentWeek)
	require.Equal(t, models.LeagueStatusActive, advanced.Status)

	advanced, err = app.AdvanceWeek(context.Background(), leagueID)
	require.NoError(t, err)
	require.Equal(t, models.LeagueStatusCompleted, advanced.Status)

	// A completed league cannot advance further.
	_, err = app.AdvanceWeek(context.Background(), leagueID)
	require.Error(t, err)

	require.Equal(t, []string{"WeekAdvanced", "WeekAdvanced"}, outbox.events)
}
