package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftMode defines how picks are acquired in a draft.
type DraftMode string

const (
	DraftModeSnake   DraftMode = "SNAKE"
	DraftModeAuction DraftMode = "AUCTION"
)

// DraftStatus defines the status of a draft.
type DraftStatus string

const (
	DraftStatusWaiting   DraftStatus = "WAITING"
	DraftStatusDrafting  DraftStatus = "DRAFTING"
	DraftStatusPaused    DraftStatus = "PAUSED"
	DraftStatusCompleted DraftStatus = "COMPLETED"
	DraftStatusCancelled DraftStatus = "CANCELLED"
)

// DraftSettings holds JSONB configuration for drafts.
type DraftSettings struct {
	RosterSize       int         `json:"roster_size"`
	TimePerPickSec   int         `json:"time_per_pick_sec"`
	DraftOrder       []uuid.UUID `json:"draft_order,omitempty"`
	BudgetPerTeam    int         `json:"budget_per_team"`
	UndoQuota        int         `json:"undo_quota"`
	NominationSec    int         `json:"nomination_sec,omitempty"`     // auction
	AntiSnipeSec     int         `json:"anti_snipe_sec,omitempty"`     // auction: trailing window that extends the clock
	AntiSnipeAddSec  int         `json:"anti_snipe_add_sec,omitempty"` // auction: extension granted inside the window
	FloorBid         int         `json:"floor_bid,omitempty"`          // auction
	FormatID         string      `json:"format_id"`
	ProxyPickTeamIDs []uuid.UUID `json:"proxy_pick_team_ids,omitempty"`
}

// Draft represents one drafting session.
type Draft struct {
	ID          uuid.UUID     `json:"id"`
	HostID      uuid.UUID     `json:"host_id"`
	Mode        DraftMode     `json:"mode"`
	Status      DraftStatus   `json:"status"`
	Settings    DraftSettings `json:"settings"`
	CurrentTurn int           `json:"current_turn"` // 1-indexed global turn while drafting
	// PausedRemaining preserves the live deadline's remaining time across a pause
	// so resume recomputes the deadline instead of restarting the full duration.
	PausedRemainingSec *int       `json:"paused_remaining_sec,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TeamCount returns the number of drafting seats.
func (d *Draft) TeamCount() int {
	return len(d.Settings.DraftOrder)
}

// ProxyPickEnabled reports whether the host authorized picking on behalf of teamID.
func (d *Draft) ProxyPickEnabled(teamID uuid.UUID) bool {
	for _, id := range d.Settings.ProxyPickTeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}
