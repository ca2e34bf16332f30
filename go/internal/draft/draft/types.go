package draft

import (
	"time"

	"github.com/google/uuid"

	"github.com/draftarena/draftarena/go/internal/models"
)

// CreateDraftRequest represents a request to create a new draft
type CreateDraftRequest struct {
	ID       uuid.UUID            `json:"id"`
	HostID   uuid.UUID            `json:"host_id"`
	Mode     models.DraftMode     `json:"mode"`
	Settings models.DraftSettings `json:"settings"`
}

// UpdateSettingsRequest carries host adjustments to a draft's configuration.
type UpdateSettingsRequest struct {
	TimePerPickSec   *int         `json:"time_per_pick_sec,omitempty"`
	ProxyPickTeamIDs *[]uuid.UUID `json:"proxy_pick_team_ids,omitempty"`
}

// NextDeadline represents the next deadline for a draft
type NextDeadline struct {
	DraftID  uuid.UUID  `json:"draft_id"`
	Deadline *time.Time `json:"deadline"`
}
