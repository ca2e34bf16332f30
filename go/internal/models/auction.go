package models

import (
	"time"

	"github.com/google/uuid"
)

// AuctionState defines the lifecycle of a nomination.
type AuctionState string

const (
	AuctionStateNominated AuctionState = "NOMINATED"
	AuctionStateBidding   AuctionState = "BIDDING"
	AuctionStateResolving AuctionState = "RESOLVING"
	AuctionStateCompleted AuctionState = "COMPLETED"
)

// Live reports whether the auction still accepts bids.
func (s AuctionState) Live() bool {
	return s == AuctionStateNominated || s == AuctionStateBidding
}

// Auction represents a live or resolved nomination.
type Auction struct {
	ID               uuid.UUID    `json:"id"`
	DraftID          uuid.UUID    `json:"draft_id"`
	CharacterID      string       `json:"character_id"`
	NominatingTeamID uuid.UUID    `json:"nominating_team_id"`
	CurrentBid       int          `json:"current_bid"`
	CurrentBidderID  *uuid.UUID   `json:"current_bidder_id,omitempty"` // nil until a bid is accepted
	EndsAt           time.Time    `json:"ends_at"`
	State            AuctionState `json:"state"`
	// PausedRemainingSec holds the seconds left on the clock while the parent
	// draft is paused; nil whenever the clock is running.
	PausedRemainingSec *int      `json:"paused_remaining_sec,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Bid represents one accepted raise.
type Bid struct {
	ID        uuid.UUID `json:"id"`
	AuctionID uuid.UUID `json:"auction_id"`
	TeamID    uuid.UUID `json:"team_id"`
	Amount    int       `json:"amount"`
	PlacedAt  time.Time `json:"placed_at"`
}
