package draft

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/models"
)

type fakeDraftRepo struct {
	draft    *models.Draft
	deadline *time.Time
}

func (r *fakeDraftRepo) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	r.draft = &models.Draft{
		ID:       req.ID,
		HostID:   req.HostID,
		Mode:     req.Mode,
		Status:   models.DraftStatusWaiting,
		Settings: req.Settings,
	}
	return r.draft, nil
}

func (r *fakeDraftRepo) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	if r.draft == nil {
		return nil, fault.ErrNotFound
	}
	copied := *r.draft
	return &copied, nil
}

func (r *fakeDraftRepo) UpdateDraftStatus(ctx context.Context, id uuid.UUID, status models.DraftStatus) (*models.Draft, error) {
	r.draft.Status = status
	copied := *r.draft
	return &copied, nil
}

func (r *fakeDraftRepo) UpdateSettings(ctx context.Context, id uuid.UUID, settings models.DraftSettings) (*models.Draft, error) {
	r.draft.Settings = settings
	copied := *r.draft
	return &copied, nil
}

func (r *fakeDraftRepo) StartDraft(ctx context.Context, id uuid.UUID, startedAt time.Time) (*models.Draft, error) {
	if r.draft.Status != models.DraftStatusWaiting {
		return nil, fault.ErrDraftNotActive
	}
	r.draft.Status = models.DraftStatusDrafting
	r.draft.CurrentTurn = 1
	r.draft.StartedAt = &startedAt
	copied := *r.draft
	return &copied, nil
}

func (r *fakeDraftRepo) PauseDraft(ctx context.Context, id uuid.UUID, remainingSec *int) (*models.Draft, error) {
	if r.draft.Status != models.DraftStatusDrafting {
		return nil, fault.ErrDraftNotActive
	}
	r.draft.Status = models.DraftStatusPaused
	r.draft.PausedRemainingSec = remainingSec
	r.deadline = nil
	copied := *r.draft
	return &copied, nil
}

func (r *fakeDraftRepo) ResumeDraft(ctx context.Context, id uuid.UUID, deadline *time.Time) (*models.Draft, error) {
	if r.draft.Status != models.DraftStatusPaused {
		return nil, fault.ErrDraftNotActive
	}
	r.draft.Status = models.DraftStatusDrafting
	r.draft.PausedRemainingSec = nil
	r.deadline = deadline
	copied := *r.draft
	return &copied, nil
}

func (r *fakeDraftRepo) CompleteDraft(ctx context.Context, id uuid.UUID, completedAt time.Time) (*models.Draft, error) {
	r.draft.Status = models.DraftStatusCompleted
	r.draft.CompletedAt = &completedAt
	r.deadline = nil
	copied := *r.draft
	return &copied, nil
}

func (r *fakeDraftRepo) ResetDraftCascade(ctx context.Context, id uuid.UUID, undoQuota int) (*models.Draft, error) {
	r.draft.Status = models.DraftStatusWaiting
	r.draft.CurrentTurn = 0
	r.deadline = nil
	copied := *r.draft
	return &copied, nil
}

func (r *fakeDraftRepo) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	r.draft = nil
	return nil
}

func (r *fakeDraftRepo) FetchNextDeadline(ctx context.Context) (*NextDeadline, error) {
	return nil, nil
}

func (r *fakeDraftRepo) FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	return nil, nil
}

func (r *fakeDraftRepo) UpdateNextDeadline(ctx context.Context, draftID uuid.UUID, deadline *time.Time) error {
	r.deadline = deadline
	return nil
}

func (r *fakeDraftRepo) ClearNextDeadline(ctx context.Context, draftID uuid.UUID) error {
	r.deadline = nil
	return nil
}

func (r *fakeDraftRepo) GetNextDeadlineFor(ctx context.Context, draftID uuid.UUID) (*time.Time, error) {
	return r.deadline, nil
}

type nullOutbox struct{}

func (nullOutbox) InsertEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) error {
	return nil
}

type fakeAuctionClock struct {
	suspended []time.Time
	resumed   []time.Time
	err       error
}

func (c *fakeAuctionClock) SuspendForDraft(ctx context.Context, draftID uuid.UUID, now time.Time) error {
	if c.err != nil {
		return c.err
	}
	c.suspended = append(c.suspended, now)
	return nil
}

func (c *fakeAuctionClock) ResumeForDraft(ctx context.Context, draftID uuid.UUID, now time.Time) error {
	if c.err != nil {
		return c.err
	}
	c.resumed = append(c.resumed, now)
	return nil
}

func newDraftApp(t *testing.T) (*App, *fakeDraftRepo, *clockwork.FakeClock, *models.Draft) {
	t.Helper()
	repo := &fakeDraftRepo{}
	clock := clockwork.NewFakeClock()
	app := NewApp(repo, nullOutbox{}, &fakeAuctionClock{}, clock)

	order := []uuid.UUID{uuid.New(), uuid.New()}
	draft, err := app.CreateDraft(context.Background(), CreateDraftRequest{
		ID:     uuid.New(),
		HostID: uuid.New(),
		Mode:   models.DraftModeSnake,
		Settings: models.DraftSettings{
			RosterSize:     3,
			TimePerPickSec: 60,
			DraftOrder:     order,
			FormatID:       "standard",
		},
	})
	require.NoError(t, err)
	return app, repo, clock, draft
}

func TestStartDraftArmsFirstDeadline(t *testing.T) {
	app, repo, clock, draft := newDraftApp(t)

	started, err := app.StartDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)
	require.Equal(t, models.DraftStatusDrafting, started.Status)
	require.Equal(t, 1, started.CurrentTurn)
	require.NotNil(t, repo.deadline)
	require.Equal(t, clock.Now().Add(60*time.Second), *repo.deadline)
}

func TestStartDraftIsHostOnly(t *testing.T) {
	app, _, _, draft := newDraftApp(t)

	_, err := app.StartDraft(context.Background(), draft.ID, uuid.New())
	require.ErrorIs(t, err, fault.ErrHostOnly)
}

func TestPauseCapturesRemainingTime(t *testing.T) {
	app, repo, clock, draft := newDraftApp(t)
	_, err := app.StartDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)

	// 40s into a 60s turn leaves 20s.
	clock.Advance(40 * time.Second)
	paused, err := app.PauseDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)
	require.Equal(t, models.DraftStatusPaused, paused.Status)
	require.NotNil(t, repo.draft.PausedRemainingSec)
	require.Equal(t, 20, *repo.draft.PausedRemainingSec)
}

func TestResumeRestoresRemainingTimeNotFullDuration(t *testing.T) {
	app, repo, clock, draft := newDraftApp(t)
	_, err := app.StartDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)

	clock.Advance(40 * time.Second)
	_, err = app.PauseDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	resumed, err := app.ResumeDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)
	require.Equal(t, models.DraftStatusDrafting, resumed.Status)
	require.NotNil(t, repo.deadline)
	require.Equal(t, clock.Now().Add(20*time.Second), *repo.deadline)
}

func TestPauseAfterDeadlineElapsedClampsToZero(t *testing.T) {
	app, repo, clock, draft := newDraftApp(t)
	_, err := app.StartDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)

	clock.Advance(90 * time.Second)
	_, err = app.PauseDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)
	require.Equal(t, 0, *repo.draft.PausedRemainingSec)
}

// A host pause has to stop every clock in the draft: the turn deadline and
// any live auction expiry freeze together and thaw together.
func TestPauseAndResumeDriveAuctionClock(t *testing.T) {
	repo := &fakeDraftRepo{}
	auctions := &fakeAuctionClock{}
	clock := clockwork.NewFakeClock()
	app := NewApp(repo, nullOutbox{}, auctions, clock)

	draft, err := app.CreateDraft(context.Background(), CreateDraftRequest{
		ID:     uuid.New(),
		HostID: uuid.New(),
		Mode:   models.DraftModeAuction,
		Settings: models.DraftSettings{
			RosterSize:    2,
			DraftOrder:    []uuid.UUID{uuid.New(), uuid.New()},
			BudgetPerTeam: 100,
			FloorBid:      1,
			NominationSec: 30,
			FormatID:      "standard",
		},
	})
	require.NoError(t, err)
	_, err = app.StartDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)

	clock.Advance(10 * time.Second)
	pausedAt := clock.Now()
	_, err = app.PauseDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)
	require.Equal(t, []time.Time{pausedAt}, auctions.suspended)
	require.Empty(t, auctions.resumed)

	clock.Advance(time.Hour)
	resumedAt := clock.Now()
	_, err = app.ResumeDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)
	require.Equal(t, []time.Time{resumedAt}, auctions.resumed)
}

func TestResumeRequiresPausedDraft(t *testing.T) {
	app, _, _, draft := newDraftApp(t)
	_, err := app.StartDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)

	_, err = app.ResumeDraft(context.Background(), draft.ID, draft.HostID)
	require.ErrorIs(t, err, fault.ErrDraftNotActive)
}

func TestUpdateDraftStatusEnforcesTransitions(t *testing.T) {
	cases := []struct {
		name string
		from models.DraftStatus
		to   models.DraftStatus
		ok   bool
	}{
		{name: "waiting to drafting", from: models.DraftStatusWaiting, to: models.DraftStatusDrafting, ok: true},
		{name: "drafting to paused", from: models.DraftStatusDrafting, to: models.DraftStatusPaused, ok: true},
		{name: "paused back to drafting", from: models.DraftStatusPaused, to: models.DraftStatusDrafting, ok: true},
		{name: "drafting to completed", from: models.DraftStatusDrafting, to: models.DraftStatusCompleted, ok: true},
		{name: "waiting straight to completed", from: models.DraftStatusWaiting, to: models.DraftStatusCompleted, ok: false},
		{name: "completed is terminal", from: models.DraftStatusCompleted, to: models.DraftStatusDrafting, ok: false},
		{name: "cancelled is terminal", from: models.DraftStatusCancelled, to: models.DraftStatusWaiting, ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, repo, _, _ := newDraftApp(t)
			repo.draft.Status = tc.from

			_, err := app.UpdateDraftStatus(context.Background(), repo.draft.ID, tc.to)
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestDeleteDraftOnlyBeforeStart(t *testing.T) {
	app, _, _, draft := newDraftApp(t)
	_, err := app.StartDraft(context.Background(), draft.ID, draft.HostID)
	require.NoError(t, err)

	err = app.DeleteDraft(context.Background(), draft.ID, draft.HostID)
	require.Error(t, err)
}

func TestSetProxyPickTogglesTeam(t *testing.T) {
	app, repo, _, draft := newDraftApp(t)
	teamID := uuid.New()

	updated, err := app.SetProxyPick(context.Background(), draft.ID, draft.HostID, teamID, true)
	require.NoError(t, err)
	require.True(t, updated.ProxyPickEnabled(teamID))

	updated, err = app.SetProxyPick(context.Background(), draft.ID, draft.HostID, teamID, false)
	require.NoError(t, err)
	require.False(t, updated.ProxyPickEnabled(teamID))
	require.False(t, repo.draft.ProxyPickEnabled(teamID))
}
