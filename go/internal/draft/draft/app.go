package draft

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
)

// DraftRepository defines what the draft app layer needs from the draft repository
type DraftRepository interface {
	CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	UpdateDraftStatus(ctx context.Context, id uuid.UUID, status models.DraftStatus) (*models.Draft, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, settings models.DraftSettings) (*models.Draft, error)
	StartDraft(ctx context.Context, id uuid.UUID, startedAt time.Time) (*models.Draft, error)
	PauseDraft(ctx context.Context, id uuid.UUID, remainingSec *int) (*models.Draft, error)
	ResumeDraft(ctx context.Context, id uuid.UUID, deadline *time.Time) (*models.Draft, error)
	CompleteDraft(ctx context.Context, id uuid.UUID, completedAt time.Time) (*models.Draft, error)
	ResetDraftCascade(ctx context.Context, id uuid.UUID, undoQuota int) (*models.Draft, error)
	DeleteDraft(ctx context.Context, id uuid.UUID) error
	FetchNextDeadline(ctx context.Context) (*NextDeadline, error)
	FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error)
	UpdateNextDeadline(ctx context.Context, draftID uuid.UUID, deadline *time.Time) error
	ClearNextDeadline(ctx context.Context, draftID uuid.UUID) error
	GetNextDeadlineFor(ctx context.Context, draftID uuid.UUID) (*time.Time, error)
}

// Outbox defines what the draft app layer needs to emit domain events.
type Outbox interface {
	InsertEvent(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) error
}

// AuctionClock freezes and re-arms live auction expiries so a host pause
// stops every clock in the draft, not just the turn deadline.
type AuctionClock interface {
	SuspendForDraft(ctx context.Context, draftID uuid.UUID, now time.Time) error
	ResumeForDraft(ctx context.Context, draftID uuid.UUID, now time.Time) error
}

// App handles draft lifecycle business logic and the host command surface.
type App struct {
	repo     DraftRepository
	outbox   Outbox
	auctions AuctionClock
	clock    clockwork.Clock
}

func NewApp(repo DraftRepository, outbox Outbox, auctions AuctionClock, clock clockwork.Clock) *App {
	return &App{
		repo:     repo,
		outbox:   outbox,
		auctions: auctions,
		clock:    clock,
	}
}

// CreateDraft creates a new draft with validation
func (a *App) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	if err := a.validateCreateDraftRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := a.validateDraftSettings(req.Mode, req.Settings); err != nil {
		return nil, fmt.Errorf("invalid draft settings: %w", err)
	}

	draft, err := a.repo.CreateDraft(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	log.Info().
		Str("draft_id", draft.ID.String()).
		Str("mode", string(draft.Mode)).
		Msg("created draft")
	return draft, nil
}

// GetDraft retrieves a draft by ID
func (a *App) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	draft, err := a.repo.GetDraft(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return draft, nil
}

// StartDraft is the host command that opens turn one and arms the first
// pick deadline.
func (a *App) StartDraft(ctx context.Context, draftID, callerID uuid.UUID) (*models.Draft, error) {
	if err := a.requireHost(ctx, draftID, callerID); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	draft, err := a.repo.StartDraft(ctx, draftID, now)
	if err != nil {
		return nil, err
	}

	if draft.Settings.TimePerPickSec > 0 {
		deadline := now.Add(time.Duration(draft.Settings.TimePerPickSec) * time.Second)
		if err := a.repo.UpdateNextDeadline(ctx, draftID, &deadline); err != nil {
			return nil, err
		}
	}

	a.emit(ctx, draftID, events.TypeDraftStarted, events.DraftStartedPayload{
		DraftID:    draftID.String(),
		Mode:       string(draft.Mode),
		StartedAt:  now,
		TotalPicks: turn.TotalPicks(draft.TeamCount(), draft.Settings.RosterSize),
	})

	log.Info().Str("draft_id", draftID.String()).Msg("draft started")
	return draft, nil
}

// PauseDraft suspends the live deadline, remembering how much of it was left.
func (a *App) PauseDraft(ctx context.Context, draftID, callerID uuid.UUID) (*models.Draft, error) {
	if err := a.requireHost(ctx, draftID, callerID); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	var remainingSec *int
	deadline, err := a.repo.GetNextDeadlineFor(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if deadline != nil {
		rem := int(deadline.Sub(now).Round(time.Second) / time.Second)
		if rem < 0 {
			rem = 0
		}
		remainingSec = &rem
	}

	draft, err := a.repo.PauseDraft(ctx, draftID, remainingSec)
	if err != nil {
		return nil, err
	}
	// Any live auction clock freezes with the draft so expiry cannot fire
	// mid-pause.
	if err := a.auctions.SuspendForDraft(ctx, draftID, now); err != nil {
		return nil, fmt.Errorf("draft paused but auction clock not suspended: %w", err)
	}

	a.emit(ctx, draftID, events.TypeDraftPaused, events.DraftPausedPayload{
		DraftID:      draftID.String(),
		PausedAt:     now,
		RemainingSec: remainingSec,
	})
	return draft, nil
}

// ResumeDraft recomputes the deadline from the time remaining at pause
// rather than restarting the full per-pick duration.
func (a *App) ResumeDraft(ctx context.Context, draftID, callerID uuid.UUID) (*models.Draft, error) {
	if err := a.requireHost(ctx, draftID, callerID); err != nil {
		return nil, err
	}

	current, err := a.repo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if current.Status != models.DraftStatusPaused {
		return nil, fault.ErrDraftNotActive
	}

	now := a.clock.Now()
	var deadline *time.Time
	switch {
	case current.PausedRemainingSec != nil:
		d := now.Add(time.Duration(*current.PausedRemainingSec) * time.Second)
		deadline = &d
	case current.Settings.TimePerPickSec > 0:
		d := now.Add(time.Duration(current.Settings.TimePerPickSec) * time.Second)
		deadline = &d
	}

	draft, err := a.repo.ResumeDraft(ctx, draftID, deadline)
	if err != nil {
		return nil, err
	}
	if err := a.auctions.ResumeForDraft(ctx, draftID, now); err != nil {
		return nil, fmt.Errorf("draft resumed but auction clock not restored: %w", err)
	}

	a.emit(ctx, draftID, events.TypeDraftResumed, events.DraftResumedPayload{
		DraftID:   draftID.String(),
		ResumedAt: now,
		Deadline:  deadline,
	})
	return draft, nil
}

// EndDraft is the host command that force-completes a drafting session.
func (a *App) EndDraft(ctx context.Context, draftID, callerID uuid.UUID) (*models.Draft, error) {
	if err := a.requireHost(ctx, draftID, callerID); err != nil {
		return nil, err
	}
	return a.Complete(ctx, draftID)
}

// Complete transitions a drafting session to completed. Called by the pick
// committer when the final roster slot fills, and by the host's end command.
func (a *App) Complete(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	now := a.clock.Now()
	draft, err := a.repo.CompleteDraft(ctx, draftID, now)
	if err != nil {
		return nil, err
	}

	a.emit(ctx, draftID, events.TypeDraftCompleted, events.DraftCompletedPayload{
		DraftID:     draftID.String(),
		CompletedAt: now,
		TotalPicks:  turn.TotalPicks(draft.TeamCount(), draft.Settings.RosterSize),
	})

	log.Info().Str("draft_id", draftID.String()).Msg("draft completed")
	return draft, nil
}

// ResetDraft wipes picks, auctions, and ledgers, returning the session to
// waiting so the host can start over.
func (a *App) ResetDraft(ctx context.Context, draftID, callerID uuid.UUID) (*models.Draft, error) {
	if err := a.requireHost(ctx, draftID, callerID); err != nil {
		return nil, err
	}

	current, err := a.repo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	draft, err := a.repo.ResetDraftCascade(ctx, draftID, current.Settings.UndoQuota)
	if err != nil {
		return nil, fmt.Errorf("failed to reset draft: %w", err)
	}

	log.Info().Str("draft_id", draftID.String()).Msg("draft reset")
	return draft, nil
}

// DeleteDraft deletes a draft that has not started.
func (a *App) DeleteDraft(ctx context.Context, draftID, callerID uuid.UUID) error {
	if err := a.requireHost(ctx, draftID, callerID); err != nil {
		return err
	}

	draft, err := a.repo.GetDraft(ctx, draftID)
	if err != nil {
		return fmt.Errorf("draft not found: %w", err)
	}
	if draft.Status != models.DraftStatusWaiting {
		return fmt.Errorf("cannot delete draft with status %s, only %s drafts can be deleted",
			draft.Status, models.DraftStatusWaiting)
	}

	if err := a.repo.DeleteDraft(ctx, draftID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	log.Info().Str("draft_id", draftID.String()).Msg("draft deleted")
	return nil
}

// SetTimePerPick adjusts the per-turn wall clock for future turns.
func (a *App) SetTimePerPick(ctx context.Context, draftID, callerID uuid.UUID, seconds int) (*models.Draft, error) {
	if err := a.requireHost(ctx, draftID, callerID); err != nil {
		return nil, err
	}
	if seconds < 0 {
		return nil, fmt.Errorf("time_per_pick_sec cannot be negative")
	}

	current, err := a.repo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	settings := current.Settings
	settings.TimePerPickSec = seconds
	return a.repo.UpdateSettings(ctx, draftID, settings)
}

// SetProxyPick enables or disables host proxy-picking for a team.
func (a *App) SetProxyPick(ctx context.Context, draftID, callerID, teamID uuid.UUID, enabled bool) (*models.Draft, error) {
	if err := a.requireHost(ctx, draftID, callerID); err != nil {
		return nil, err
	}

	current, err := a.repo.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	settings := current.Settings
	filtered := settings.ProxyPickTeamIDs[:0:0]
	for _, id := range settings.ProxyPickTeamIDs {
		if id != teamID {
			filtered = append(filtered, id)
		}
	}
	if enabled {
		filtered = append(filtered, teamID)
	}
	settings.ProxyPickTeamIDs = filtered
	return a.repo.UpdateSettings(ctx, draftID, settings)
}

// UpdateDraftStatus updates the status of a draft with transition validation.
func (a *App) UpdateDraftStatus(ctx context.Context, id uuid.UUID, status models.DraftStatus) (*models.Draft, error) {
	if err := a.validateDraftStatus(status); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	currentDraft, err := a.repo.GetDraft(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("draft not found: %w", err)
	}

	if err := a.validateStatusTransition(currentDraft.Status, status); err != nil {
		return nil, fmt.Errorf("invalid status transition: %w", err)
	}

	draft, err := a.repo.UpdateDraftStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update draft status: %w", err)
	}

	log.Info().
		Str("draft_id", id.String()).
		Str("from", string(currentDraft.Status)).
		Str("to", string(status)).
		Msg("updated draft status")
	return draft, nil
}

// Deadline accessors used by the orchestrator.

func (a *App) FetchNextDeadline(ctx context.Context) (*NextDeadline, error) {
	return a.repo.FetchNextDeadline(ctx)
}

func (a *App) FetchDraftsDueForPick(ctx context.Context, now time.Time, limit int32) ([]uuid.UUID, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}
	return a.repo.FetchDraftsDueForPick(ctx, now, limit)
}

func (a *App) UpdateNextDeadline(ctx context.Context, draftID uuid.UUID, deadline *time.Time) error {
	return a.repo.UpdateNextDeadline(ctx, draftID, deadline)
}

func (a *App) ClearNextDeadline(ctx context.Context, draftID uuid.UUID) error {
	return a.repo.ClearNextDeadline(ctx, draftID)
}

func (a *App) requireHost(ctx context.Context, draftID, callerID uuid.UUID) error {
	draft, err := a.repo.GetDraft(ctx, draftID)
	if err != nil {
		return fmt.Errorf("draft not found: %w", err)
	}
	if draft.HostID != callerID {
		return fault.ErrHostOnly
	}
	return nil
}

func (a *App) emit(ctx context.Context, draftID uuid.UUID, eventType string, payload any) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}
	if err := a.outbox.InsertEvent(ctx, draftID, eventType, payloadBytes); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to emit event")
	}
}

// Validation methods

func (a *App) validateCreateDraftRequest(req CreateDraftRequest) error {
	if req.ID == uuid.Nil {
		return fmt.Errorf("id is required")
	}
	if req.HostID == uuid.Nil {
		return fmt.Errorf("host_id is required")
	}
	switch req.Mode {
	case models.DraftModeSnake, models.DraftModeAuction:
	default:
		return fmt.Errorf("invalid draft mode: %s", req.Mode)
	}
	return nil
}

func (a *App) validateDraftStatus(status models.DraftStatus) error {
	switch status {
	case models.DraftStatusWaiting, models.DraftStatusDrafting, models.DraftStatusPaused,
		models.DraftStatusCompleted, models.DraftStatusCancelled:
		return nil
	default:
		return fmt.Errorf("invalid draft status: %s", status)
	}
}

// validateStatusTransition validates if a status transition is allowed
func (a *App) validateStatusTransition(currentStatus, newStatus models.DraftStatus) error {
	if currentStatus == newStatus {
		return nil
	}

	allowedTransitions := map[models.DraftStatus][]models.DraftStatus{
		models.DraftStatusWaiting:   {models.DraftStatusDrafting, models.DraftStatusCancelled},
		models.DraftStatusDrafting:  {models.DraftStatusPaused, models.DraftStatusCompleted, models.DraftStatusCancelled},
		models.DraftStatusPaused:    {models.DraftStatusDrafting, models.DraftStatusCancelled},
		models.DraftStatusCompleted: {},
		models.DraftStatusCancelled: {},
	}

	allowedNext, exists := allowedTransitions[currentStatus]
	if !exists {
		return fmt.Errorf("unknown current status: %s", currentStatus)
	}

	for _, allowed := range allowedNext {
		if newStatus == allowed {
			return nil
		}
	}

	return fmt.Errorf("transition from %s to %s is not allowed", currentStatus, newStatus)
}

func (a *App) validateDraftSettings(mode models.DraftMode, settings models.DraftSettings) error {
	if settings.RosterSize <= 0 {
		return fmt.Errorf("roster_size must be greater than 0")
	}
	if settings.TimePerPickSec < 0 {
		return fmt.Errorf("time_per_pick_sec cannot be negative")
	}
	if settings.UndoQuota < 0 {
		return fmt.Errorf("undo_quota cannot be negative")
	}
	if len(settings.DraftOrder) == 0 {
		return fmt.Errorf("draft_order is required")
	}
	if settings.FormatID == "" {
		return fmt.Errorf("format_id is required")
	}

	switch mode {
	case models.DraftModeAuction:
		if settings.BudgetPerTeam <= 0 {
			return fmt.Errorf("budget_per_team must be greater than 0 for auction drafts")
		}
		if settings.FloorBid <= 0 {
			return fmt.Errorf("floor_bid must be greater than 0 for auction drafts")
		}
		if settings.NominationSec <= 0 {
			return fmt.Errorf("nomination_sec must be greater than 0 for auction drafts")
		}
	case models.DraftModeSnake:
		if settings.BudgetPerTeam < 0 {
			return fmt.Errorf("budget_per_team cannot be negative")
		}
	}

	return nil
}
