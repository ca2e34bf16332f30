package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem represents a team's ranked want.
type WishlistItem struct {
	ID          uuid.UUID `json:"id"`
	TeamID      uuid.UUID `json:"team_id"`
	CharacterID string    `json:"character_id"`
	Priority    int       `json:"priority"` // unique per team; lower is wanted more
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
}
