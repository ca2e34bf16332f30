package pick

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/draftarena/draftarena/go/internal/draft/events"
	"github.com/draftarena/draftarena/go/internal/draft/fault"
	"github.com/draftarena/draftarena/go/internal/draft/turn"
	"github.com/draftarena/draftarena/go/internal/models"
)

// Undo reverses the team's single most recent committed pick, bounded by the
// per-team quota. Undoing only rewinds the live turn counter when the undone
// pick was also the globally most recent one; otherwise it just vacates a
// roster slot.
func (a *App) Undo(ctx context.Context, req UndoRequest) (*models.Pick, error) {
	draft, err := a.draftApp.GetDraft(ctx, req.DraftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != models.DraftStatusDrafting {
		return nil, fault.ErrDraftNotActive
	}

	team, err := a.teamApp.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}
	if req.ActorID != team.OwnerID && req.ActorID != draft.HostID {
		return nil, fault.ErrHostOnly
	}
	if team.UndosRemaining <= 0 {
		return nil, fault.ErrUndoQuotaExhausted
	}

	latest, err := a.repo.LatestPickForTeam(ctx, req.DraftID, req.TeamID)
	if errors.Is(err, fault.ErrNotFound) {
		return nil, fault.ErrNotMostRecentPick
	}
	if err != nil {
		return nil, err
	}

	if err := a.checkUndoWindow(draft, team); err != nil {
		return nil, err
	}

	rewind := latest.OverallPick == draft.CurrentTurn-1
	var deadline *time.Time
	if rewind {
		// Re-arm whichever window the rewound turn runs on: the pick clock
		// for snake drafts, the nomination clock for auctions.
		deadline = a.nextDeadline(draft, a.clock.Now(), false)
	}

	payload, err := json.Marshal(events.UndoAppliedPayload{
		DraftID:        req.DraftID.String(),
		TeamID:         req.TeamID.String(),
		PickID:         latest.ID.String(),
		CharacterID:    latest.CharacterID,
		RefundedCost:   latest.Cost,
		UndosRemaining: team.UndosRemaining - 1,
		TurnRewound:    rewind,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal undo payload: %w", err)
	}

	err = a.repo.UndoPick(ctx, UndoParams{
		PickID:       latest.ID,
		DraftID:      req.DraftID,
		TeamID:       req.TeamID,
		Cost:         latest.Cost,
		RewindTurn:   rewind,
		OverallPick:  latest.OverallPick,
		NextDeadline: deadline,
	}, []PendingEvent{{Type: events.TypeUndoApplied, Payload: payload}})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("draft_id", req.DraftID.String()).
		Str("team_id", req.TeamID.String()).
		Str("pick_id", latest.ID.String()).
		Bool("turn_rewound", rewind).
		Msg("undo applied")
	return latest, nil
}

// checkUndoWindow restricts undo to the team's actionable window: its
// upcoming turn or the turn it just passed. Anything older is history.
func (a *App) checkUndoWindow(draft *models.Draft, team *models.Team) error {
	n := draft.TeamCount()
	total := turn.TotalPicks(n, draft.Settings.RosterSize)

	if draft.CurrentTurn <= total && turn.SeatAt(draft.CurrentTurn, n) == team.DraftOrderIndex {
		return nil
	}
	if draft.CurrentTurn > 1 && turn.SeatAt(draft.CurrentTurn-1, n) == team.DraftOrderIndex {
		return nil
	}
	return fault.ErrWrongTurn
}
