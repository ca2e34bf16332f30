package auction

import (
	"time"

	"github.com/google/uuid"
)

// NominateRequest puts a character up for auction.
type NominateRequest struct {
	DraftID     uuid.UUID `json:"draft_id"`
	TeamID      uuid.UUID `json:"team_id"`
	CharacterID string    `json:"character_id"`
	ActorID     uuid.UUID `json:"actor_id"`
}

// BidRequest is one team's attempt to raise the current bid.
type BidRequest struct {
	AuctionID uuid.UUID `json:"auction_id"`
	TeamID    uuid.UUID `json:"team_id"`
	Amount    int       `json:"amount"`
}

// NextDeadline represents the next auction expiry across all drafts.
type NextDeadline struct {
	AuctionID uuid.UUID `json:"auction_id"`
	DraftID   uuid.UUID `json:"draft_id"`
	EndsAt    time.Time `json:"ends_at"`
}
