package trades

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftarena/draftarena/go/internal/draft/events"
	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/models"
)

// TradeRepository defines what the app layer needs from storage.
type TradeRepository interface {
	CreateTrade(ctx context.Context, t models.Trade) (*models.Trade, error)
	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	ListTradesByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Trade, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.TradeStatus, resolvedAt *time.Time) (*models.Trade, error)
	Approve(ctx context.Context, id uuid.UUID, approvedAt time.Time) (*models.Trade, error)
	ExecuteTrade(ctx context.Context, trade *models.Trade, draftID uuid.UUID, eventType string, payload []byte, resolvedAt time.Time) error
}

// LeagueApp scopes trades to an active league.
type LeagueApp interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
}

// DraftApp resolves the draft host for the approval gate.
type DraftApp interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
}

// TeamApp resolves team ownership for authorization.
type TeamApp interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

// PickApp validates picks offered in a trade.
type PickApp interface {
	GetPick(ctx context.Context, id uuid.UUID) (*models.Pick, error)
}

// App runs the trade lifecycle: proposed, then accepted, rejected, or
// cancelled, then a distinct execute step that swaps ownership.
type App struct {
	repo   TradeRepository
	league LeagueApp
	drafts DraftApp
	teams  TeamApp
	picks  PickApp
	clock  clockwork.Clock
}

func NewApp(repo TradeRepository, league LeagueApp, drafts DraftApp, teams TeamApp, picks PickApp, clock clockwork.Clock) *App {
	return &App{
		repo:   repo,
		league: league,
		drafts: drafts,
		teams:  teams,
		picks:  picks,
		clock:  clock,
	}
}

// Propose opens a trade. Both sides' picks are validated up front; dead
// picks are re-checked at execute time since a casualty can happen between.
func (a *App) Propose(ctx context.Context, req ProposeTradeRequest) (*models.Trade, error) {
	if len(req.GivesA) == 0 && len(req.GivesB) == 0 {
		return nil, fault.ErrEmptyTradeOffer
	}
	if req.TeamAID == req.TeamBID {
		return nil, fmt.Errorf("a team cannot trade with itself")
	}

	league, err := a.league.GetLeague(ctx, req.LeagueID)
	if err != nil {
		return nil, err
	}
	if league.Status != models.LeagueStatusActive {
		return nil, fmt.Errorf("league %s is not active", req.LeagueID)
	}

	teamA, err := a.teams.GetTeam(ctx, req.TeamAID)
	if err != nil {
		return nil, err
	}
	if req.ActorID != teamA.OwnerID {
		return nil, fault.ErrNotProposer
	}

	if err := a.validateOffer(ctx, req.GivesA, req.TeamAID); err != nil {
		return nil, err
	}
	if err := a.validateOffer(ctx, req.GivesB, req.TeamBID); err != nil {
		return nil, err
	}

	trade, err := a.repo.CreateTrade(ctx, models.Trade{
		ID:               uuid.New(),
		LeagueID:         req.LeagueID,
		TeamAID:          req.TeamAID,
		TeamBID:          req.TeamBID,
		GivesA:           req.GivesA,
		GivesB:           req.GivesB,
		RequiresApproval: req.RequiresApproval,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("trade_id", trade.ID.String()).
		Str("league_id", req.LeagueID.String()).
		Int("gives_a", len(req.GivesA)).
		Int("gives_b", len(req.GivesB)).
		Msg("trade proposed")
	return trade, nil
}

func (a *App) validateOffer(ctx context.Context, pickIDs []uuid.UUID, ownerTeamID uuid.UUID) error {
	for _, pickID := range pickIDs {
		pick, err := a.picks.GetPick(ctx, pickID)
		if err != nil {
			return err
		}
		if pick.TeamID != ownerTeamID {
			return fmt.Errorf("pick %s does not belong to team %s", pickID, ownerTeamID)
		}
		if pick.Status == models.PickStatusDead {
			return fault.ErrDeadPickInTrade
		}
	}
	return nil
}

// Accept is the receiving team's commitment. Execution is a separate step.
func (a *App) Accept(ctx context.Context, req RespondRequest) (*models.Trade, error) {
	trade, err := a.repo.GetTrade(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}
	teamB, err := a.teams.GetTeam(ctx, trade.TeamBID)
	if err != nil {
		return nil, err
	}
	if req.ActorID != teamB.OwnerID {
		return nil, fmt.Errorf("only the receiving team can accept a trade")
	}
	return a.repo.TransitionStatus(ctx, req.TradeID, models.TradeStatusProposed, models.TradeStatusAccepted, nil)
}

// Reject declines a proposed trade; only the receiving team may do it.
func (a *App) Reject(ctx context.Context, req RespondRequest) (*models.Trade, error) {
	trade, err := a.repo.GetTrade(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}
	teamB, err := a.teams.GetTeam(ctx, trade.TeamBID)
	if err != nil {
		return nil, err
	}
	if req.ActorID != teamB.OwnerID {
		return nil, fmt.Errorf("only the receiving team can reject a trade")
	}
	now := a.clock.Now()
	return a.repo.TransitionStatus(ctx, req.TradeID, models.TradeStatusProposed, models.TradeStatusRejected, &now)
}

// Cancel withdraws a still-proposed trade; only the proposer may do it.
func (a *App) Cancel(ctx context.Context, req RespondRequest) (*models.Trade, error) {
	trade, err := a.repo.GetTrade(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}
	teamA, err := a.teams.GetTeam(ctx, trade.TeamAID)
	if err != nil {
		return nil, err
	}
	if req.ActorID != teamA.OwnerID {
		return nil, fault.ErrNotProposer
	}
	now := a.clock.Now()
	return a.repo.TransitionStatus(ctx, req.TradeID, models.TradeStatusProposed, models.TradeStatusCancelled, &now)
}

// Approve is the host sign-off on an accepted trade that was proposed with
// the approval gate.
func (a *App) Approve(ctx context.Context, req RespondRequest) (*models.Trade, error) {
	trade, err := a.repo.GetTrade(ctx, req.TradeID)
	if err != nil {
		return nil, err
	}
	host, err := a.hostOf(ctx, trade.LeagueID)
	if err != nil {
		return nil, err
	}
	if req.ActorID != host {
		return nil, fault.ErrHostOnly
	}
	return a.repo.Approve(ctx, req.TradeID, a.clock.Now())
}

// Execute applies an accepted trade: every listed pick changes hands in one
// transaction, or none do. Dead picks discovered at execute time abort it.
func (a *App) Execute(ctx context.Context, tradeID uuid.UUID) (*models.Trade, error) {
	trade, err := a.repo.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Status != models.TradeStatusAccepted {
		return nil, fmt.Errorf("trade %s is not accepted", tradeID)
	}
	if trade.RequiresApproval && trade.ApprovedAt == nil {
		return nil, fault.ErrHostOnly
	}

	league, err := a.league.GetLeague(ctx, trade.LeagueID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(events.TradeExecutedPayload{
		TradeID: trade.ID.String(),
		TeamAID: trade.TeamAID.String(),
		TeamBID: trade.TeamBID.String(),
		GivesA:  uuidsToStrings(trade.GivesA),
		GivesB:  uuidsToStrings(trade.GivesB),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trade payload: %w", err)
	}

	if err := a.repo.ExecuteTrade(ctx, trade, league.DraftID, events.TypeTradeExecuted, payload, a.clock.Now()); err != nil {
		return nil, err
	}

	log.Info().
		Str("trade_id", tradeID.String()).
		Str("league_id", trade.LeagueID.String()).
		Msg("trade executed")
	return a.repo.GetTrade(ctx, tradeID)
}

// GetTrade retrieves a trade by ID.
func (a *App) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return a.repo.GetTrade(ctx, id)
}

func (a *App) ListTradesByLeague(ctx context.Context, leagueID uuid.UUID) ([]models.Trade, error) {
	return a.repo.ListTradesByLeague(ctx, leagueID)
}

func (a *App) hostOf(ctx context.Context, leagueID uuid.UUID) (uuid.UUID, error) {
	league, err := a.league.GetLeague(ctx, leagueID)
	if err != nil {
		return uuid.Nil, err
	}
	draft, err := a.drafts.GetDraft(ctx, league.DraftID)
	if err != nil {
		return uuid.Nil, err
	}
	return draft.HostID, nil
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
