package models

import (
	"time"

	"github.com/google/uuid"
)

// PickStatus tracks whether a drafted character is still usable.
type PickStatus string

const (
	PickStatusActive PickStatus = "ACTIVE"
	// PickStatusDead marks a Nuzlocke casualty; dead picks are excluded from trades.
	PickStatusDead PickStatus = "DEAD"
)

// Pick represents one committed acquisition.
type Pick struct {
	ID          uuid.UUID  `json:"id"`
	DraftID     uuid.UUID  `json:"draft_id"`
	TeamID      uuid.UUID  `json:"team_id"`
	CharacterID string     `json:"character_id"`
	Cost        int        `json:"cost"`
	Round       int        `json:"round"`
	OverallPick int        `json:"overall_pick"` // global, unique, monotonic
	Status      PickStatus `json:"status"`
	PickedAt    time.Time  `json:"picked_at"`
}
