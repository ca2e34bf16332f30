package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/draftarena/draftarena/go/internal/draft/auction"
	"github.com/draftarena/draftarena/go/internal/draft/draft"
	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/models"
)

type stubDrafts struct {
	draft *models.Draft
}

func (d *stubDrafts) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	return d.draft, nil
}

func (d *stubDrafts) FetchNextDeadline(ctx context.Context) (*draft.NextDeadline, error) {
	return nil, nil
}

func (d *stubDrafts) FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	return nil, nil
}

type stubAuctions struct {
	live     *models.Auction
	resolved []uuid.UUID
}

func (a *stubAuctions) GetLiveAuction(ctx context.Context, draftID uuid.UUID) (*models.Auction, error) {
	if a.live == nil {
		return nil, fault.ErrNotFound
	}
	return a.live, nil
}

func (a *stubAuctions) FetchNextDeadline(ctx context.Context) (*auction.NextDeadline, error) {
	return nil, nil
}

func (a *stubAuctions) FetchAuctionsDue(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	return nil, nil
}

func (a *stubAuctions) Resolve(ctx context.Context, auctionID uuid.UUID) error {
	a.resolved = append(a.resolved, auctionID)
	return nil
}

type stubPicks struct {
	skips   []int
	skipErr error
}

func (p *stubPicks) SkipTurn(ctx context.Context, draftID uuid.UUID, turnNum int) error {
	if p.skipErr != nil {
		return p.skipErr
	}
	p.skips = append(p.skips, turnNum)
	return nil
}

type stubWishlists struct {
	pick *models.Pick
	err  error
}

func (w *stubWishlists) ResolveAutoPick(ctx context.Context, draft *models.Draft, teamID uuid.UUID, turnNum int) (*models.Pick, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.pick, nil
}

type stubTeams struct {
	team *models.Team
}

func (t *stubTeams) GetTeamBySeat(ctx context.Context, draftID uuid.UUID, seat int) (*models.Team, error) {
	return t.team, nil
}

type timeoutFixture struct {
	orch      *Orchestrator
	draft     *models.Draft
	auctions  *stubAuctions
	picks     *stubPicks
	wishlists *stubWishlists
}

func newTimeoutFixture(t *testing.T, mode models.DraftMode) *timeoutFixture {
	t.Helper()
	d := &models.Draft{
		ID:          uuid.New(),
		Mode:        mode,
		Status:      models.DraftStatusDrafting,
		CurrentTurn: 3,
		Settings: models.DraftSettings{
			RosterSize: 4,
			DraftOrder: []uuid.UUID{uuid.New(), uuid.New(), uuid.New()},
		},
	}
	auctions := &stubAuctions{}
	picks := &stubPicks{}
	wishlists := &stubWishlists{err: fault.ErrNotFound}
	teams := &stubTeams{team: &models.Team{ID: uuid.New(), DraftID: d.ID, DraftOrderIndex: 3}}

	orch := New(&stubDrafts{draft: d}, auctions, picks, wishlists, teams, clockwork.NewFakeClock(), 50)
	return &timeoutFixture{orch: orch, draft: d, auctions: auctions, picks: picks, wishlists: wishlists}
}

func TestPickTimeoutAutoPicksFromWishlist(t *testing.T) {
	f := newTimeoutFixture(t, models.DraftModeSnake)
	f.wishlists.err = nil
	f.wishlists.pick = &models.Pick{CharacterID: "gengar"}

	require.NoError(t, f.orch.handlePickTimeout(context.Background(), f.draft.ID))
	require.Empty(t, f.picks.skips, "a successful auto-pick consumes the turn itself")
}

func TestPickTimeoutSkipsWhenWishlistBarren(t *testing.T) {
	f := newTimeoutFixture(t, models.DraftModeSnake)

	require.NoError(t, f.orch.handlePickTimeout(context.Background(), f.draft.ID))
	require.Equal(t, []int{3}, f.picks.skips)
}

func TestPickTimeoutIgnoresInactiveDraft(t *testing.T) {
	f := newTimeoutFixture(t, models.DraftModeSnake)
	f.draft.Status = models.DraftStatusPaused

	require.NoError(t, f.orch.handlePickTimeout(context.Background(), f.draft.ID))
	require.Empty(t, f.picks.skips)
}

func TestPickTimeoutLeavesLiveAuctionAlone(t *testing.T) {
	f := newTimeoutFixture(t, models.DraftModeAuction)
	f.auctions.live = &models.Auction{ID: uuid.New(), State: models.AuctionStateBidding}

	// The draft-level deadline is stale while an auction runs its own clock.
	require.NoError(t, f.orch.handlePickTimeout(context.Background(), f.draft.ID))
	require.Empty(t, f.picks.skips)
}

func TestPickTimeoutForfeitsMissedNomination(t *testing.T) {
	f := newTimeoutFixture(t, models.DraftModeAuction)

	require.NoError(t, f.orch.handlePickTimeout(context.Background(), f.draft.ID))
	require.Equal(t, []int{3}, f.picks.skips)
}

func TestPickTimeoutSwallowsTurnRaces(t *testing.T) {
	f := newTimeoutFixture(t, models.DraftModeSnake)
	// A live pick landed between the deadline fetch and the skip.
	f.picks.skipErr = fault.ErrWrongTurn

	require.NoError(t, f.orch.handlePickTimeout(context.Background(), f.draft.ID))
}
