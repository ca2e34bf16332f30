package pick

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/rules"
)

type fakeRepo struct {
	// turn is the committed turn counter; commits and skips compare-and-swap
	// against it the way the store's conditional UPDATE does.
	turn      int
	teams     map[uuid.UUID]*models.Team
	drafted   map[string]bool
	latest    *models.Pick
	commits   []CommitPickParams
	skips     []SkipTurnParams
	undos     []UndoParams
	events    []PendingEvent
	commitErr error
	skipErr   error
	undoErr   error
}

func (r *fakeRepo) CommitPick(ctx context.Context, params CommitPickParams, outboxEvents []PendingEvent) (*models.Pick, error) {
	if r.commitErr != nil {
		return nil, r.commitErr
	}
	if params.Turn != r.turn {
		return nil, fault.ErrWrongTurn
	}
	r.turn++
	if team, ok := r.teams[params.TeamID]; ok {
		team.BudgetRemaining -= params.Cost
	}
	r.commits = append(r.commits, params)
	r.events = append(r.events, outboxEvents...)
	r.drafted[params.CharacterID] = true
	return &models.Pick{
		ID:          params.PickID,
		DraftID:     params.DraftID,
		TeamID:      params.TeamID,
		CharacterID: params.CharacterID,
		Cost:        params.Cost,
		Round:       params.Round,
		OverallPick: params.Turn,
		Status:      models.PickStatusActive,
		PickedAt:    params.PickedAt,
	}, nil
}

func (r *fakeRepo) AdvanceTurnWithoutPick(ctx context.Context, params SkipTurnParams, outboxEvents []PendingEvent) error {
	if r.skipErr != nil {
		return r.skipErr
	}
	if params.Turn != r.turn {
		return fault.ErrWrongTurn
	}
	r.turn++
	r.skips = append(r.skips, params)
	r.events = append(r.events, outboxEvents...)
	return nil
}

func (r *fakeRepo) UndoPick(ctx context.Context, params UndoParams, outboxEvents []PendingEvent) error {
	if r.undoErr != nil {
		return r.undoErr
	}
	if params.RewindTurn {
		r.turn--
	}
	if team, ok := r.teams[params.TeamID]; ok {
		team.BudgetRemaining += params.Cost
	}
	r.undos = append(r.undos, params)
	r.events = append(r.events, outboxEvents...)
	return nil
}

func (r *fakeRepo) GetPick(ctx context.Context, id uuid.UUID) (*models.Pick, error) {
	return nil, fault.ErrNotFound
}

func (r *fakeRepo) ListPicksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	return nil, nil
}

func (r *fakeRepo) ListPicksByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Pick, error) {
	return nil, nil
}

func (r *fakeRepo) LatestPickForTeam(ctx context.Context, draftID, teamID uuid.UUID) (*models.Pick, error) {
	if r.latest == nil {
		return nil, fault.ErrNotFound
	}
	return r.latest, nil
}

func (r *fakeRepo) IsCharacterDrafted(ctx context.Context, draftID uuid.UUID, characterID string) (bool, error) {
	return r.drafted[characterID], nil
}

func (r *fakeRepo) MarkPickDead(ctx context.Context, pickID uuid.UUID) (*models.Pick, error) {
	return nil, fault.ErrNotFound
}

type fakeDraftApp struct {
	draft     *models.Draft
	completed int
}

func (d *fakeDraftApp) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	return d.draft, nil
}

func (d *fakeDraftApp) Complete(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	d.completed++
	d.draft.Status = models.DraftStatusCompleted
	return d.draft, nil
}

type fakeTeamApp struct {
	teams map[uuid.UUID]*models.Team
}

func (t *fakeTeamApp) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, ok := t.teams[id]
	if !ok {
		return nil, fault.ErrNotFound
	}
	return team, nil
}

func (t *fakeTeamApp) GetTeamBySeat(ctx context.Context, draftID uuid.UUID, seat int) (*models.Team, error) {
	for _, team := range t.teams {
		if team.DraftID == draftID && team.DraftOrderIndex == seat {
			return team, nil
		}
	}
	return nil, fault.ErrNotFound
}

type fixture struct {
	app    *App
	repo   *fakeRepo
	drafts *fakeDraftApp
	teams  *fakeTeamApp
	clock  *clockwork.FakeClock
	draft  *models.Draft
	seats  []*models.Team // index 0 = seat 1
}

// newFixture builds a 4-team snake draft in DRAFTING state on turn 1, with a
// 2-slot roster (8 total picks) and an oracle that prices everything at 10.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	draftID := uuid.New()
	hostID := uuid.New()
	var order []uuid.UUID
	teams := make(map[uuid.UUID]*models.Team)
	var seats []*models.Team
	for seat := 1; seat <= 4; seat++ {
		team := &models.Team{
			ID:              uuid.New(),
			DraftID:         draftID,
			OwnerID:         uuid.New(),
			Name:            "team",
			DraftOrderIndex: seat,
			BudgetTotal:     100,
			BudgetRemaining: 100,
			UndosRemaining:  3,
		}
		order = append(order, team.ID)
		teams[team.ID] = team
		seats = append(seats, team)
	}

	draft := &models.Draft{
		ID:          draftID,
		HostID:      hostID,
		Mode:        models.DraftModeSnake,
		Status:      models.DraftStatusDrafting,
		CurrentTurn: 1,
		Settings: models.DraftSettings{
			RosterSize:     2,
			TimePerPickSec: 60,
			DraftOrder:     order,
			BudgetPerTeam:  100,
			UndoQuota:      3,
			FormatID:       "standard",
		},
	}

	repo := &fakeRepo{turn: 1, teams: teams, drafted: make(map[string]bool)}
	drafts := &fakeDraftApp{draft: draft}
	teamApp := &fakeTeamApp{teams: teams}
	oracle := rules.OracleFunc(func(characterID, formatID string) rules.Verdict {
		return rules.Verdict{IsLegal: true, Cost: 10}
	})
	clock := clockwork.NewFakeClock()

	return &fixture{
		app:    NewApp(repo, drafts, teamApp, oracle, clock),
		repo:   repo,
		drafts: drafts,
		teams:  teamApp,
		clock:  clock,
		draft:  draft,
		seats:  seats,
	}
}

// setTurn moves both views of the turn counter: the draft row the app reads
// and the committed counter the store CASes against.
func (f *fixture) setTurn(n int) {
	f.draft.CurrentTurn = n
	f.repo.turn = n
}

func (f *fixture) request(seat, turnNum int) AttemptPickRequest {
	team := f.seats[seat-1]
	return AttemptPickRequest{
		DraftID:     f.draft.ID,
		TeamID:      team.ID,
		CharacterID: "pikachu",
		Turn:        turnNum,
		ActorID:     team.OwnerID,
	}
}

func TestAttemptPickCommits(t *testing.T) {
	f := newFixture(t)

	pick, err := f.app.AttemptPick(context.Background(), f.request(1, 1))
	require.NoError(t, err)
	require.Equal(t, "pikachu", pick.CharacterID)
	require.Equal(t, 10, pick.Cost)
	require.Equal(t, 1, pick.OverallPick)

	require.Len(t, f.repo.commits, 1)
	params := f.repo.commits[0]
	require.Equal(t, 1, params.Round)
	require.NotNil(t, params.NextDeadline)
	require.Equal(t, f.clock.Now().Add(60*time.Second), *params.NextDeadline)

	// One PickCommitted plus one TurnAdvanced.
	require.Len(t, f.repo.events, 2)
}

// Two requests race for the same turn. Both validate against the same draft
// snapshot, so the storage turn counter is the only arbiter: exactly one
// commit lands.
func TestRacingAttemptsForSameTurnCommitExactlyOnce(t *testing.T) {
	f := newFixture(t)

	first := f.request(1, 1)
	second := f.request(1, 1)
	second.CharacterID = "eevee"

	_, err := f.app.AttemptPick(context.Background(), first)
	require.NoError(t, err)

	// The draft row the app reads still says turn 1, as a concurrent reader
	// would see it; the commit itself must refuse.
	_, err = f.app.AttemptPick(context.Background(), second)
	require.ErrorIs(t, err, fault.ErrWrongTurn)
	require.Len(t, f.repo.commits, 1)
	require.False(t, f.repo.drafted["eevee"])
}

func TestAttemptPickRejectsWrongTurn(t *testing.T) {
	f := newFixture(t)

	_, err := f.app.AttemptPick(context.Background(), f.request(1, 2))
	require.ErrorIs(t, err, fault.ErrWrongTurn)
	require.Empty(t, f.repo.commits)
}

func TestAttemptPickRejectsWrongSeat(t *testing.T) {
	f := newFixture(t)

	// Seat 2 claims turn 1, which belongs to seat 1.
	req := f.request(2, 1)
	_, err := f.app.AttemptPick(context.Background(), req)
	require.ErrorIs(t, err, fault.ErrWrongTurn)
}

func TestAttemptPickRejectsWhenNotDrafting(t *testing.T) {
	f := newFixture(t)
	f.draft.Status = models.DraftStatusPaused

	_, err := f.app.AttemptPick(context.Background(), f.request(1, 1))
	require.ErrorIs(t, err, fault.ErrDraftNotActive)
}

func TestAttemptPickRejectsDuplicateCharacter(t *testing.T) {
	f := newFixture(t)
	f.repo.drafted["pikachu"] = true

	_, err := f.app.AttemptPick(context.Background(), f.request(1, 1))
	require.ErrorIs(t, err, fault.ErrAlreadyDrafted)
}

func TestAttemptPickRejectsIllegalCharacter(t *testing.T) {
	f := newFixture(t)
	f.app.oracle = rules.OracleFunc(func(characterID, formatID string) rules.Verdict {
		return rules.Verdict{IsLegal: false, Reason: "banned"}
	})

	_, err := f.app.AttemptPick(context.Background(), f.request(1, 1))
	require.ErrorIs(t, err, fault.ErrNotLegal)
}

func TestAttemptPickActorAuthorization(t *testing.T) {
	f := newFixture(t)
	stranger := uuid.New()

	req := f.request(1, 1)
	req.ActorID = stranger
	_, err := f.app.AttemptPick(context.Background(), req)
	require.ErrorIs(t, err, fault.ErrHostOnly)

	// Host without proxy enabled is rejected too.
	req.ActorID = f.draft.HostID
	_, err = f.app.AttemptPick(context.Background(), req)
	require.ErrorIs(t, err, fault.ErrHostOnly)

	// Host picks fine once proxy is enabled for the seat.
	f.draft.Settings.ProxyPickTeamIDs = []uuid.UUID{f.seats[0].ID}
	_, err = f.app.AttemptPick(context.Background(), req)
	require.NoError(t, err)
}

func TestAttemptPickAutoPickSkipsActorCheck(t *testing.T) {
	f := newFixture(t)

	req := f.request(1, 1)
	req.ActorID = uuid.Nil
	req.AutoPicked = true
	_, err := f.app.AttemptPick(context.Background(), req)
	require.NoError(t, err)
	require.True(t, f.repo.commits[0].AutoPicked)
}

func TestAttemptPickFinalTurnCompletesDraft(t *testing.T) {
	f := newFixture(t)
	// 4 teams x 2 roster slots = 8 picks; turn 8 belongs to seat 1 (snake).
	f.setTurn(8)

	_, err := f.app.AttemptPick(context.Background(), f.request(1, 8))
	require.NoError(t, err)
	require.Equal(t, 1, f.drafts.completed)
	require.Nil(t, f.repo.commits[0].NextDeadline)
	// Final turn emits no TurnAdvanced.
	require.Len(t, f.repo.events, 1)
}

func TestSkipTurnAdvances(t *testing.T) {
	f := newFixture(t)

	err := f.app.SkipTurn(context.Background(), f.draft.ID, 1)
	require.NoError(t, err)
	require.Len(t, f.repo.skips, 1)
	require.NotNil(t, f.repo.skips[0].NextDeadline)
	require.Len(t, f.repo.events, 2)
}

func TestSkipTurnRejectsStaleTurn(t *testing.T) {
	f := newFixture(t)
	f.setTurn(3)

	err := f.app.SkipTurn(context.Background(), f.draft.ID, 2)
	require.ErrorIs(t, err, fault.ErrWrongTurn)
	require.Empty(t, f.repo.skips)
}

func TestSkipTurnOnFinalTurnCompletesDraft(t *testing.T) {
	f := newFixture(t)
	f.setTurn(8)

	err := f.app.SkipTurn(context.Background(), f.draft.ID, 8)
	require.NoError(t, err)
	require.Equal(t, 1, f.drafts.completed)
}

func TestCommitAuctionAwardUsesWinningBid(t *testing.T) {
	f := newFixture(t)
	f.draft.Mode = models.DraftModeAuction
	f.draft.Settings.NominationSec = 30

	pick, err := f.app.CommitAuctionAward(context.Background(), AuctionAwardRequest{
		DraftID:     f.draft.ID,
		TeamID:      f.seats[2].ID, // any team may win, regardless of seat
		CharacterID: "mewtwo",
		Cost:        42,
		Turn:        1,
	})
	require.NoError(t, err)
	require.Equal(t, 42, pick.Cost)

	// The next window is the nomination clock, not the pick clock.
	deadline := f.repo.commits[0].NextDeadline
	require.NotNil(t, deadline)
	require.Equal(t, f.clock.Now().Add(30*time.Second), *deadline)
}

func TestCommitAuctionAwardRejectsStaleTurn(t *testing.T) {
	f := newFixture(t)
	f.setTurn(5)

	_, err := f.app.CommitAuctionAward(context.Background(), AuctionAwardRequest{
		DraftID: f.draft.ID,
		TeamID:  f.seats[0].ID,
		Turn:    4,
	})
	require.ErrorIs(t, err, fault.ErrWrongTurn)
}

// Budget spent must always equal the cost of the roster: commits charge the
// ledger, undo refunds it.
func TestBudgetConservationAcrossCommitsAndUndo(t *testing.T) {
	f := newFixture(t)
	spent := func(team *models.Team) int { return team.BudgetTotal - team.BudgetRemaining }

	_, err := f.app.AttemptPick(context.Background(), f.request(1, 1))
	require.NoError(t, err)

	f.setTurn(2)
	second := f.request(2, 2)
	second.CharacterID = "eevee"
	_, err = f.app.AttemptPick(context.Background(), second)
	require.NoError(t, err)

	require.Equal(t, 10, spent(f.seats[0]))
	require.Equal(t, 10, spent(f.seats[1]))

	// Seat 2 takes its pick back; the charge comes back with it.
	f.setTurn(3)
	f.repo.latest = &models.Pick{
		ID:          uuid.New(),
		DraftID:     f.draft.ID,
		TeamID:      f.seats[1].ID,
		CharacterID: "eevee",
		Cost:        10,
		OverallPick: 2,
	}
	_, err = f.app.Undo(context.Background(), UndoRequest{
		DraftID: f.draft.ID,
		TeamID:  f.seats[1].ID,
		ActorID: f.seats[1].OwnerID,
	})
	require.NoError(t, err)

	require.Equal(t, 0, spent(f.seats[1]))
	total := 0
	for _, team := range f.seats {
		total += spent(team)
	}
	require.Equal(t, 10, total, "spend must match the one remaining pick")
}

func TestUndoReversesMostRecentPick(t *testing.T) {
	f := newFixture(t)
	f.setTurn(2)
	f.repo.latest = &models.Pick{
		ID:          uuid.New(),
		DraftID:     f.draft.ID,
		TeamID:      f.seats[0].ID,
		CharacterID: "pikachu",
		Cost:        10,
		OverallPick: 1,
		Status:      models.PickStatusActive,
	}

	pick, err := f.app.Undo(context.Background(), UndoRequest{
		DraftID: f.draft.ID,
		TeamID:  f.seats[0].ID,
		ActorID: f.seats[0].OwnerID,
	})
	require.NoError(t, err)
	require.Equal(t, "pikachu", pick.CharacterID)

	require.Len(t, f.repo.undos, 1)
	params := f.repo.undos[0]
	require.True(t, params.RewindTurn, "undoing the globally latest pick rewinds the turn")
	require.Equal(t, 10, params.Cost)
	require.NotNil(t, params.NextDeadline)
}

// Undoing a rewound auction award re-arms the nomination window, not the
// snake pick clock.
func TestUndoInAuctionModeReArmsNominationWindow(t *testing.T) {
	f := newFixture(t)
	f.draft.Mode = models.DraftModeAuction
	f.draft.Settings.NominationSec = 30
	f.setTurn(2)
	f.repo.latest = &models.Pick{
		ID:          uuid.New(),
		DraftID:     f.draft.ID,
		TeamID:      f.seats[0].ID,
		CharacterID: "mewtwo",
		Cost:        42,
		OverallPick: 1,
	}

	_, err := f.app.Undo(context.Background(), UndoRequest{
		DraftID: f.draft.ID,
		TeamID:  f.seats[0].ID,
		ActorID: f.seats[0].OwnerID,
	})
	require.NoError(t, err)

	params := f.repo.undos[0]
	require.True(t, params.RewindTurn)
	require.NotNil(t, params.NextDeadline)
	require.Equal(t, f.clock.Now().Add(30*time.Second), *params.NextDeadline)
}

func TestUndoWithoutRewindWhenOthersPickedSince(t *testing.T) {
	f := newFixture(t)
	// Seat 1 picked on turn 1; seats 2 and 3 have picked since.
	f.setTurn(4)
	f.repo.latest = &models.Pick{
		ID:          uuid.New(),
		DraftID:     f.draft.ID,
		TeamID:      f.seats[0].ID,
		OverallPick: 1,
	}

	// Turn 4 belongs to seat 4, so seat 1 is outside its undo window.
	_, err := f.app.Undo(context.Background(), UndoRequest{
		DraftID: f.draft.ID,
		TeamID:  f.seats[0].ID,
		ActorID: f.seats[0].OwnerID,
	})
	require.ErrorIs(t, err, fault.ErrWrongTurn)
}

func TestUndoQuotaExhausted(t *testing.T) {
	f := newFixture(t)
	f.seats[0].UndosRemaining = 0

	_, err := f.app.Undo(context.Background(), UndoRequest{
		DraftID: f.draft.ID,
		TeamID:  f.seats[0].ID,
		ActorID: f.seats[0].OwnerID,
	})
	require.ErrorIs(t, err, fault.ErrUndoQuotaExhausted)
}

func TestUndoWithNoPicks(t *testing.T) {
	f := newFixture(t)
	f.setTurn(2)

	_, err := f.app.Undo(context.Background(), UndoRequest{
		DraftID: f.draft.ID,
		TeamID:  f.seats[0].ID,
		ActorID: f.seats[0].OwnerID,
	})
	require.ErrorIs(t, err, fault.ErrNotMostRecentPick)
}

func TestUndoRequiresOwnerOrHost(t *testing.T) {
	f := newFixture(t)
	f.setTurn(2)
	f.repo.latest = &models.Pick{
		ID:          uuid.New(),
		DraftID:     f.draft.ID,
		TeamID:      f.seats[0].ID,
		OverallPick: 1,
	}

	_, err := f.app.Undo(context.Background(), UndoRequest{
		DraftID: f.draft.ID,
		TeamID:  f.seats[0].ID,
		ActorID: uuid.New(),
	})
	require.ErrorIs(t, err, fault.ErrHostOnly)

	// The host may undo on a team's behalf.
	_, err = f.app.Undo(context.Background(), UndoRequest{
		DraftID: f.draft.ID,
		TeamID:  f.seats[0].ID,
		ActorID: f.draft.HostID,
	})
	require.NoError(t, err)
}
