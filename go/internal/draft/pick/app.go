package pick

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
	"github.com/draftarena/draftarena/go/internal/draft/turn"
	"github.com/draftarena/draftarena/go/internal/models"
	"github.com/draftarena/draftarena/go/internal/rules"
)

// PickRepository defines what the pick app layer needs from storage.
type PickRepository interface {
	CommitPick(ctx context.Context, params CommitPickParams, outboxEvents []PendingEvent) (*models.Pick, error)
	AdvanceTurnWithoutPick(ctx context.Context, params SkipTurnParams, outboxEvents []PendingEvent) error
	UndoPick(ctx context.Context, params UndoParams, outboxEvents []PendingEvent) error
	GetPick(ctx context.Context, id uuid.UUID) (*models.Pick, error)
	ListPicksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error)
	ListPicksByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Pick, error)
	LatestPickForTeam(ctx context.Context, draftID, teamID uuid.UUID) (*models.Pick, error)
	IsCharacterDrafted(ctx context.Context, draftID uuid.UUID, characterID string) (bool, error)
	MarkPickDead(ctx context.Context, pickID uuid.UUID) (*models.Pick, error)
}

// DraftApp defines what the pick committer needs from the draft lifecycle.
type DraftApp interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	Complete(ctx context.Context, draftID uuid.UUID) (*models.Draft, error)
}

// TeamApp defines what the pick committer needs from the team layer.
type TeamApp interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetTeamBySeat(ctx context.Context, draftID uuid.UUID, seat int) (*models.Team, error)
}

// App is the pick committer: it owns the only write paths that consume a
// draft turn.
type App struct {
	repo     PickRepository
	draftApp DraftApp
	teamApp  TeamApp
	oracle   rules.LegalityOracle
	clock    clockwork.Clock
}

func NewApp(repo PickRepository, draftApp DraftApp, teamApp TeamApp, oracle rules.LegalityOracle, clock clockwork.Clock) *App {
	return &App{
		repo:     repo,
		draftApp: draftApp,
		teamApp:  teamApp,
		oracle:   oracle,
		clock:    clock,
	}
}

// AttemptPick validates and commits one pick for one turn. The final commit
// is a single conditional-write transaction; the checks before it only give
// callers earlier, friendlier rejections.
func (a *App) AttemptPick(ctx context.Context, req AttemptPickRequest) (*models.Pick, error) {
	draft, err := a.draftApp.GetDraft(ctx, req.DraftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != models.DraftStatusDrafting {
		return nil, fault.ErrDraftNotActive
	}

	n := draft.TeamCount()
	if req.Turn != draft.CurrentTurn {
		return nil, fault.ErrWrongTurn
	}

	team, err := a.teamApp.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}
	if team.DraftID != draft.ID {
		return nil, fmt.Errorf("team %s does not belong to draft %s", req.TeamID, req.DraftID)
	}
	if team.DraftOrderIndex != turn.SeatAt(req.Turn, n) {
		return nil, fault.ErrWrongTurn
	}
	if err := a.authorizeActor(draft, team, req); err != nil {
		return nil, err
	}

	drafted, err := a.repo.IsCharacterDrafted(ctx, req.DraftID, req.CharacterID)
	if err != nil {
		return nil, err
	}
	if drafted {
		return nil, fault.ErrAlreadyDrafted
	}

	// Server-side authority: the oracle is consulted at commit time even if
	// the client already validated.
	verdict := a.oracle.Validate(req.CharacterID, draft.Settings.FormatID)
	if !verdict.IsLegal {
		return nil, fault.ErrNotLegal
	}

	now := a.clock.Now()
	finalTurn := req.Turn == turn.TotalPicks(n, draft.Settings.RosterSize)
	deadline := a.nextDeadline(draft, now, finalTurn)

	pickID := uuid.New()
	pending, err := a.commitEvents(draft, team, pickID, req, verdict.Cost, now, deadline)
	if err != nil {
		return nil, err
	}

	committed, err := a.repo.CommitPick(ctx, CommitPickParams{
		PickID:       pickID,
		DraftID:      req.DraftID,
		TeamID:       req.TeamID,
		CharacterID:  req.CharacterID,
		Cost:         verdict.Cost,
		Round:        turn.RoundOf(req.Turn, n),
		Turn:         req.Turn,
		RosterSize:   draft.Settings.RosterSize,
		NextDeadline: deadline,
		AutoPicked:   req.AutoPicked,
		PickedAt:     now,
	}, pending)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("draft_id", req.DraftID.String()).
		Str("team_id", req.TeamID.String()).
		Str("character_id", req.CharacterID).
		Int("turn", req.Turn).
		Bool("auto", req.AutoPicked).
		Msg("pick committed")

	if finalTurn {
		if _, err := a.draftApp.Complete(ctx, req.DraftID); err != nil {
			return nil, fmt.Errorf("pick committed but completion failed: %w", err)
		}
	}
	return committed, nil
}

// SkipTurn consumes the current turn without producing a pick. Used when a
// timed-out team has nothing eligible on its wishlist.
func (a *App) SkipTurn(ctx context.Context, draftID uuid.UUID, turnNum int) error {
	draft, err := a.draftApp.GetDraft(ctx, draftID)
	if err != nil {
		return err
	}
	if draft.Status != models.DraftStatusDrafting {
		return fault.ErrDraftNotActive
	}
	if turnNum != draft.CurrentTurn {
		return fault.ErrWrongTurn
	}

	n := draft.TeamCount()
	team, err := a.teamApp.GetTeamBySeat(ctx, draftID, turn.SeatAt(turnNum, n))
	if err != nil {
		return err
	}

	now := a.clock.Now()
	finalTurn := turnNum == turn.TotalPicks(n, draft.Settings.RosterSize)
	deadline := a.nextDeadline(draft, now, finalTurn)

	skippedPayload, err := json.Marshal(events.TurnSkippedPayload{
		DraftID:   draftID.String(),
		Turn:      turnNum,
		TeamID:    team.ID.String(),
		SkippedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal skip payload: %w", err)
	}
	pending := []PendingEvent{{Type: events.TypeTurnSkipped, Payload: skippedPayload}}
	if advanced := a.turnAdvancedEvent(draft, turnNum+1, deadline); advanced != nil {
		pending = append(pending, *advanced)
	}

	if err := a.repo.AdvanceTurnWithoutPick(ctx, SkipTurnParams{
		DraftID:      draftID,
		Turn:         turnNum,
		NextDeadline: deadline,
	}, pending); err != nil {
		return err
	}

	log.Info().
		Str("draft_id", draftID.String()).
		Int("turn", turnNum).
		Msg("turn skipped")

	if finalTurn {
		if _, err := a.draftApp.Complete(ctx, draftID); err != nil {
			return fmt.Errorf("turn skipped but completion failed: %w", err)
		}
	}
	return nil
}

// CommitAuctionAward turns a won auction into a pick. The winner was fixed
// when the auction resolved, so the seat and actor checks used for snake
// picks do not apply; the commit still races on the turn counter so a
// duplicate resolution cannot award twice.
func (a *App) CommitAuctionAward(ctx context.Context, req AuctionAwardRequest) (*models.Pick, error) {
	draft, err := a.draftApp.GetDraft(ctx, req.DraftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != models.DraftStatusDrafting {
		return nil, fault.ErrDraftNotActive
	}
	if req.Turn != draft.CurrentTurn {
		return nil, fault.ErrWrongTurn
	}

	team, err := a.teamApp.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}

	now := a.clock.Now()
	n := draft.TeamCount()
	finalTurn := req.Turn == turn.TotalPicks(n, draft.Settings.RosterSize)
	deadline := a.nextDeadline(draft, now, finalTurn)

	pickID := uuid.New()
	pending, err := a.commitEvents(draft, team, pickID, AttemptPickRequest{
		DraftID:     req.DraftID,
		TeamID:      req.TeamID,
		CharacterID: req.CharacterID,
		Turn:        req.Turn,
	}, req.Cost, now, deadline)
	if err != nil {
		return nil, err
	}

	committed, err := a.repo.CommitPick(ctx, CommitPickParams{
		PickID:       pickID,
		DraftID:      req.DraftID,
		TeamID:       req.TeamID,
		CharacterID:  req.CharacterID,
		Cost:         req.Cost,
		Round:        turn.RoundOf(req.Turn, n),
		Turn:         req.Turn,
		RosterSize:   draft.Settings.RosterSize,
		NextDeadline: deadline,
		PickedAt:     now,
	}, pending)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("draft_id", req.DraftID.String()).
		Str("team_id", req.TeamID.String()).
		Str("character_id", req.CharacterID).
		Int("cost", req.Cost).
		Int("turn", req.Turn).
		Msg("auction award committed")

	if finalTurn {
		if _, err := a.draftApp.Complete(ctx, req.DraftID); err != nil {
			return nil, fmt.Errorf("award committed but completion failed: %w", err)
		}
	}
	return committed, nil
}

// GetPick retrieves a pick by ID.
func (a *App) GetPick(ctx context.Context, id uuid.UUID) (*models.Pick, error) {
	return a.repo.GetPick(ctx, id)
}

func (a *App) ListPicksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	return a.repo.ListPicksByDraft(ctx, draftID)
}

func (a *App) ListPicksByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Pick, error) {
	return a.repo.ListPicksByTeam(ctx, teamID)
}

// IsCharacterDrafted reports whether a character already sits on a roster in
// this draft.
func (a *App) IsCharacterDrafted(ctx context.Context, draftID uuid.UUID, characterID string) (bool, error) {
	return a.repo.IsCharacterDrafted(ctx, draftID, characterID)
}

// MarkPickDead records a Nuzlocke casualty.
func (a *App) MarkPickDead(ctx context.Context, pickID uuid.UUID) (*models.Pick, error) {
	pick, err := a.repo.MarkPickDead(ctx, pickID)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("pick_id", pickID.String()).
		Str("character_id", pick.CharacterID).
		Msg("pick marked dead")
	return pick, nil
}

func (a *App) authorizeActor(draft *models.Draft, team *models.Team, req AttemptPickRequest) error {
	if req.AutoPicked {
		return nil
	}
	if req.ActorID == team.OwnerID {
		return nil
	}
	if req.ActorID == draft.HostID && draft.ProxyPickEnabled(team.ID) {
		return nil
	}
	return fault.ErrHostOnly
}

func (a *App) nextDeadline(draft *models.Draft, now time.Time, finalTurn bool) *time.Time {
	if finalTurn {
		return nil
	}
	secs := draft.Settings.TimePerPickSec
	if draft.Mode == models.DraftModeAuction {
		// In auction mode the per-turn clock is the nomination window; the
		// auction itself carries its own expiry.
		secs = draft.Settings.NominationSec
	}
	if secs <= 0 {
		return nil
	}
	d := now.Add(time.Duration(secs) * time.Second)
	return &d
}

func (a *App) commitEvents(draft *models.Draft, team *models.Team, pickID uuid.UUID, req AttemptPickRequest, cost int, now time.Time, deadline *time.Time) ([]PendingEvent, error) {
	committedPayload, err := json.Marshal(events.PickCommittedPayload{
		PickID:      pickID.String(),
		TeamID:      team.ID.String(),
		CharacterID: req.CharacterID,
		Cost:        cost,
		Round:       turn.RoundOf(req.Turn, draft.TeamCount()),
		OverallPick: req.Turn,
		AutoPicked:  req.AutoPicked,
		MadeAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pick payload: %w", err)
	}

	pending := []PendingEvent{{Type: events.TypePickCommitted, Payload: committedPayload}}
	if advanced := a.turnAdvancedEvent(draft, req.Turn+1, deadline); advanced != nil {
		pending = append(pending, *advanced)
	}
	return pending, nil
}

func (a *App) turnAdvancedEvent(draft *models.Draft, nextTurn int, deadline *time.Time) *PendingEvent {
	n := draft.TeamCount()
	if nextTurn > turn.TotalPicks(n, draft.Settings.RosterSize) {
		return nil
	}
	payload, err := json.Marshal(events.TurnAdvancedPayload{
		DraftID:     draft.ID.String(),
		CurrentTurn: nextTurn,
		Deadline:    deadline,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal turn payload")
		return nil
	}
	return &PendingEvent{Type: events.TypeTurnAdvanced, Payload: payload}
}
