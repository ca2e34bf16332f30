// Package events defines the domain event payloads shared by the engine, the
// outbox relay, and the gateway. The engine only emits these; delivery to
// users is somebody else's problem.
package events

import (
	"time"
)

// Event type names as they appear on the wire.
const (
	TypeDraftStarted    = "DraftStarted"
	TypeDraftPaused     = "DraftPaused"
	TypeDraftResumed    = "DraftResumed"
	TypeDraftCompleted  = "DraftCompleted"
	TypePickCommitted   = "PickCommitted"
	TypeTurnAdvanced    = "TurnAdvanced"
	TypeTurnSkipped     = "TurnSkipped"
	TypeUndoApplied     = "UndoApplied"
	TypeAuctionOpened   = "AuctionOpened"
	TypeBidAccepted     = "BidAccepted"
	TypeAuctionResolved = "AuctionResolved"
	TypeWeekAdvanced    = "WeekAdvanced"
	TypeTradeExecuted   = "TradeExecuted"
)

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	DraftID    string    `json:"draft_id"`
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	TotalPicks int       `json:"total_picks"`
}

// DraftPausedPayload is the payload for a DraftPaused event
type DraftPausedPayload struct {
	DraftID      string    `json:"draft_id"`
	PausedAt     time.Time `json:"paused_at"`
	RemainingSec *int      `json:"remaining_sec,omitempty"`
}

// DraftResumedPayload is the payload for a DraftResumed event
type DraftResumedPayload struct {
	DraftID   string     `json:"draft_id"`
	ResumedAt time.Time  `json:"resumed_at"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event
type DraftCompletedPayload struct {
	DraftID     string    `json:"draft_id"`
	CompletedAt time.Time `json:"completed_at"`
	TotalPicks  int       `json:"total_picks"`
}

// PickCommittedPayload is the payload for a PickCommitted event
type PickCommittedPayload struct {
	PickID      string    `json:"pick_id"`
	TeamID      string    `json:"team_id"`
	CharacterID string    `json:"character_id"`
	Cost        int       `json:"cost"`
	Round       int       `json:"round"`
	OverallPick int       `json:"overall_pick"`
	AutoPicked  bool      `json:"auto_picked"`
	MadeAt      time.Time `json:"made_at"`
}

// TurnAdvancedPayload is the payload for a TurnAdvanced event
type TurnAdvancedPayload struct {
	DraftID     string     `json:"draft_id"`
	CurrentTurn int        `json:"current_turn"`
	ActingTeam  string     `json:"acting_team,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// TurnSkippedPayload is the payload for a TurnSkipped event
type TurnSkippedPayload struct {
	DraftID   string    `json:"draft_id"`
	Turn      int       `json:"turn"`
	TeamID    string    `json:"team_id"`
	SkippedAt time.Time `json:"skipped_at"`
}

// UndoAppliedPayload is the payload for an UndoApplied event
type UndoAppliedPayload struct {
	DraftID        string `json:"draft_id"`
	TeamID         string `json:"team_id"`
	PickID         string `json:"pick_id"`
	CharacterID    string `json:"character_id"`
	RefundedCost   int    `json:"refunded_cost"`
	UndosRemaining int    `json:"undos_remaining"`
	TurnRewound    bool   `json:"turn_rewound"`
}

// AuctionOpenedPayload is the payload for an AuctionOpened event
type AuctionOpenedPayload struct {
	AuctionID        string    `json:"auction_id"`
	CharacterID      string    `json:"character_id"`
	NominatingTeamID string    `json:"nominating_team_id"`
	FloorBid         int       `json:"floor_bid"`
	EndsAt           time.Time `json:"ends_at"`
}

// BidAcceptedPayload is the payload for a BidAccepted event
type BidAcceptedPayload struct {
	AuctionID string    `json:"auction_id"`
	TeamID    string    `json:"team_id"`
	Amount    int       `json:"amount"`
	EndsAt    time.Time `json:"ends_at"`
	PlacedAt  time.Time `json:"placed_at"`
}

// AuctionResolvedPayload is the payload for an AuctionResolved event
type AuctionResolvedPayload struct {
	AuctionID   string `json:"auction_id"`
	CharacterID string `json:"character_id"`
	// WinnerTeamID is empty when the auction closed with no bids.
	WinnerTeamID string `json:"winner_team_id,omitempty"`
	WinningBid   int    `json:"winning_bid,omitempty"`
}

// WeekAdvancedPayload is the payload for a WeekAdvanced event
type WeekAdvancedPayload struct {
	LeagueID    string `json:"league_id"`
	CurrentWeek int    `json:"current_week"`
}

// TradeExecutedPayload is the payload for a TradeExecuted event
type TradeExecutedPayload struct {
	TradeID string   `json:"trade_id"`
	TeamAID string   `json:"team_a_id"`
	TeamBID string   `json:"team_b_id"`
	GivesA  []string `json:"gives_a"`
	GivesB  []string `json:"gives_b"`
}
