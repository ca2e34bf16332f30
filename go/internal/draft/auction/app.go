package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftarena/draftarena/go/internal/draft/events"
	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/draft/pick"
	"github.com/draftarena/draftarena/go/internal/draft/turn"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/rules"
)

// AuctionRepository defines what the auction app layer needs from storage.
type AuctionRepository interface {
	CreateAuction(ctx context.Context, a models.Auction) (*models.Auction, error)
	GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	GetLiveAuction(ctx context.Context, draftID uuid.UUID) (*models.Auction, error)
	AcceptBid(ctx context.Context, req BidRequest, now time.Time, newEndsAt time.Time) (*models.Auction, error)
	ClaimResolution(ctx context.Context, auctionID uuid.UUID, now time.Time) (*models.Auction, error)
	CompleteAuction(ctx context.Context, auctionID uuid.UUID) error
	ExtendTime(ctx context.Context, auctionID uuid.UUID, by time.Duration) (*models.Auction, error)
	FetchNextDeadline(ctx context.Context) (*NextDeadline, error)
	FetchAuctionsDue(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error)
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error)
}

// DraftApp defines what the auction coordinator needs from the draft lifecycle.
type DraftApp interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
}

// TeamApp defines what the auction coordinator needs from the team layer.
type TeamApp interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetTeamBySeat(ctx context.Context, draftID uuid.UUID, seat int) (*models.Team, error)
}

// PickApp defines how a resolved auction turns into a committed pick.
type PickApp interface {
	CommitAuctionAward(ctx context.Context, req pick.AuctionAwardRequest) (*models.Pick, error)
	SkipTurn(ctx context.Context, draftID uuid.UUID, turnNum int) error
	IsCharacterDrafted(ctx context.Context, draftID uuid.UUID, characterID string) (bool, error)
}

// Outbox defines what the auction app layer needs to emit domain events.
type Outbox interface {
	InsertEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) error
}

// Affordability is the read-side budget check used to pre-screen bids.
type Affordability interface {
	CanAfford(ctx context.Context, teamID uuid.UUID, cost int) (bool, error)
}

// App coordinates nominations, bids, and expiry resolution for auction-mode
// drafts. Each draft has at most one live auction at a time.
type App struct {
	repo   AuctionRepository
	drafts DraftApp
	teams  TeamApp
	picks  PickApp
	ledger Affordability
	oracle rules.LegalityOracle
	outbox Outbox
	clock  clockwork.Clock
}

func NewApp(repo AuctionRepository, drafts DraftApp, teams TeamApp, picks PickApp, ledger Affordability, oracle rules.LegalityOracle, outbox Outbox, clock clockwork.Clock) *App {
	return &App{
		repo:   repo,
		drafts: drafts,
		teams:  teams,
		picks:  picks,
		ledger: ledger,
		oracle: oracle,
		outbox: outbox,
		clock:  clock,
	}
}

// Nominate opens an auction for the character put up by the team whose
// nomination turn it is. The opening bid is the draft's floor with no bidder
// attached, so the nominating team is not forced to buy.
func (a *App) Nominate(ctx context.Context, req NominateRequest) (*models.Auction, error) {
	draft, err := a.drafts.GetDraft(ctx, req.DraftID)
	if err != nil {
		return nil, err
	}
	if draft.Mode != models.DraftModeAuction {
		return nil, fmt.Errorf("draft %s is not an auction draft", req.DraftID)
	}
	if draft.Status != models.DraftStatusDrafting {
		return nil, fault.ErrDraftNotActive
	}

	team, err := a.teams.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}
	if team.DraftID != draft.ID {
		return nil, fmt.Errorf("team %s does not belong to draft %s", req.TeamID, req.DraftID)
	}
	if team.DraftOrderIndex != turn.NominatorAt(draft.CurrentTurn, draft.TeamCount()) {
		return nil, fault.ErrWrongTurn
	}
	if req.ActorID != team.OwnerID {
		if req.ActorID != draft.HostID || !draft.ProxyPickEnabled(team.ID) {
			return nil, fault.ErrHostOnly
		}
	}

	drafted, err := a.picks.IsCharacterDrafted(ctx, req.DraftID, req.CharacterID)
	if err != nil {
		return nil, err
	}
	if drafted {
		return nil, fault.ErrAlreadyDrafted
	}
	if verdict := a.oracle.Validate(req.CharacterID, draft.Settings.FormatID); !verdict.IsLegal {
		return nil, fault.ErrNotLegal
	}

	now := a.clock.Now()
	auction, err := a.repo.CreateAuction(ctx, models.Auction{
		ID:               uuid.New(),
		DraftID:          req.DraftID,
		CharacterID:      req.CharacterID,
		NominatingTeamID: req.TeamID,
		CurrentBid:       draft.Settings.FloorBid,
		EndsAt:           now.Add(time.Duration(draft.Settings.NominationSec) * time.Second),
		State:            models.AuctionStateNominated,
	})
	if err != nil {
		return nil, err
	}

	a.emit(ctx, req.DraftID, events.TypeAuctionOpened, events.AuctionOpenedPayload{
		AuctionID:        auction.ID.String(),
		CharacterID:      auction.CharacterID,
		NominatingTeamID: req.TeamID.String(),
		FloorBid:         auction.CurrentBid,
		EndsAt:           auction.EndsAt,
	})

	log.Info().
		Str("auction_id", auction.ID.String()).
		Str("draft_id", req.DraftID.String()).
		Str("character_id", req.CharacterID).
		Msg("auction opened")
	return auction, nil
}

// PlaceBid attempts to raise the current bid. Acceptance happens in a single
// conditional write, so concurrent equal bids produce exactly one winner.
// Bids landing inside the anti-snipe window stretch the auction clock.
func (a *App) PlaceBid(ctx context.Context, req BidRequest) (*models.Auction, error) {
	auction, err := a.repo.GetAuction(ctx, req.AuctionID)
	if err != nil {
		return nil, err
	}
	if !auction.State.Live() {
		return nil, fault.ErrAuctionNotActive
	}

	draft, err := a.drafts.GetDraft(ctx, auction.DraftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != models.DraftStatusDrafting {
		return nil, fault.ErrDraftNotActive
	}

	team, err := a.teams.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}
	if team.DraftID != draft.ID {
		return nil, fmt.Errorf("team %s does not belong to draft %s", req.TeamID, auction.DraftID)
	}

	ok, err := a.ledger.CanAfford(ctx, req.TeamID, req.Amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault.ErrInsufficientBudget
	}

	now := a.clock.Now()
	if !auction.EndsAt.After(now) {
		return nil, fault.ErrAuctionExpired
	}

	newEndsAt := auction.EndsAt
	if draft.Settings.AntiSnipeSec > 0 &&
		auction.EndsAt.Sub(now) <= time.Duration(draft.Settings.AntiSnipeSec)*time.Second {
		newEndsAt = now.Add(time.Duration(draft.Settings.AntiSnipeAddSec) * time.Second)
	}

	accepted, err := a.repo.AcceptBid(ctx, req, now, newEndsAt)
	if errors.Is(err, errBidNotAccepted) {
		return nil, a.classifyBidRejection(ctx, req, now)
	}
	if err != nil {
		return nil, err
	}

	a.emit(ctx, auction.DraftID, events.TypeBidAccepted, events.BidAcceptedPayload{
		AuctionID: req.AuctionID.String(),
		TeamID:    req.TeamID.String(),
		Amount:    req.Amount,
		EndsAt:    accepted.EndsAt,
		PlacedAt:  now,
	})

	log.Info().
		Str("auction_id", req.AuctionID.String()).
		Str("team_id", req.TeamID.String()).
		Int("amount", req.Amount).
		Msg("bid accepted")
	return accepted, nil
}

// Resolve finishes a due auction: the highest bidder is awarded the pick at
// their bid, or the turn is skipped when nobody bid. Completed auctions claim
// nothing, so duplicate expiry triggers are no-ops; an auction whose award
// failed stays in resolving and is claimed again on the next sweep.
func (a *App) Resolve(ctx context.Context, auctionID uuid.UUID) error {
	now := a.clock.Now()
	auction, err := a.repo.ClaimResolution(ctx, auctionID, now)
	if err != nil {
		return err
	}
	if auction == nil {
		// Someone else resolved it, or the clock has not run out yet.
		return nil
	}

	draft, err := a.drafts.GetDraft(ctx, auction.DraftID)
	if err != nil {
		return err
	}

	resolved := events.AuctionResolvedPayload{
		AuctionID:   auction.ID.String(),
		CharacterID: auction.CharacterID,
	}
	if auction.CurrentBidderID != nil {
		if _, err := a.picks.CommitAuctionAward(ctx, pick.AuctionAwardRequest{
			DraftID:     auction.DraftID,
			TeamID:      *auction.CurrentBidderID,
			CharacterID: auction.CharacterID,
			Cost:        auction.CurrentBid,
			Turn:        draft.CurrentTurn,
		}); err != nil {
			return fmt.Errorf("failed to award auction %s: %w", auction.ID, err)
		}
		resolved.WinnerTeamID = auction.CurrentBidderID.String()
		resolved.WinningBid = auction.CurrentBid
	} else {
		if err := a.picks.SkipTurn(ctx, auction.DraftID, draft.CurrentTurn); err != nil {
			return fmt.Errorf("failed to skip unsold nomination %s: %w", auction.ID, err)
		}
	}

	if err := a.repo.CompleteAuction(ctx, auction.ID); err != nil {
		return err
	}
	a.emit(ctx, auction.DraftID, events.TypeAuctionResolved, resolved)

	log.Info().
		Str("auction_id", auction.ID.String()).
		Str("character_id", auction.CharacterID).
		Bool("sold", auction.CurrentBidderID != nil).
		Msg("auction resolved")
	return nil
}

// ExtendTime lets the host add time to the live auction clock.
func (a *App) ExtendTime(ctx context.Context, auctionID uuid.UUID, actorID uuid.UUID, by time.Duration) (*models.Auction, error) {
	if by <= 0 {
		return nil, fmt.Errorf("extension must be positive, got %s", by)
	}
	auction, err := a.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	draft, err := a.drafts.GetDraft(ctx, auction.DraftID)
	if err != nil {
		return nil, err
	}
	if actorID != draft.HostID {
		return nil, fault.ErrHostOnly
	}
	return a.repo.ExtendTime(ctx, auctionID, by)
}

// GetAuction retrieves an auction by ID.
func (a *App) GetAuction(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	return a.repo.GetAuction(ctx, id)
}

// GetLiveAuction returns the draft's live auction, if any.
func (a *App) GetLiveAuction(ctx context.Context, draftID uuid.UUID) (*models.Auction, error) {
	return a.repo.GetLiveAuction(ctx, draftID)
}

// ListBids returns the accepted bid log for an auction.
func (a *App) ListBids(ctx context.Context, auctionID uuid.UUID) ([]models.Bid, error) {
	return a.repo.ListBids(ctx, auctionID)
}

// FetchNextDeadline returns the soonest auction expiry across all drafts.
func (a *App) FetchNextDeadline(ctx context.Context) (*NextDeadline, error) {
	return a.repo.FetchNextDeadline(ctx)
}

// FetchAuctionsDue returns live auctions whose clock has run out.
func (a *App) FetchAuctionsDue(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	return a.repo.FetchAuctionsDue(ctx, now, limit)
}

// classifyBidRejection re-reads the auction to explain why the conditional
// write matched nothing.
func (a *App) classifyBidRejection(ctx context.Context, req BidRequest, now time.Time) error {
	auction, err := a.repo.GetAuction(ctx, req.AuctionID)
	if err != nil {
		return fault.ErrBidTooLow
	}
	if !auction.State.Live() {
		return fault.ErrAuctionNotActive
	}
	if !auction.EndsAt.After(now) {
		return fault.ErrAuctionExpired
	}
	return fault.ErrBidTooLow
}

func (a *App) emit(ctx context.Context, draftID uuid.UUID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}
	if err := a.outbox.InsertEvent(ctx, draftID, eventType, data); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to insert outbox event")
	}
}
