package models

import (
	"time"

	"github.com/google/uuid"
)

type TradeStatus string

const (
	TradeStatusProposed  TradeStatus = "PROPOSED"
	TradeStatusAccepted  TradeStatus = "ACCEPTED"
	TradeStatusRejected  TradeStatus = "REJECTED"
	TradeStatusCancelled TradeStatus = "CANCELLED"
	TradeStatusCompleted TradeStatus = "COMPLETED"
)

// Trade represents a proposed exchange of drafted picks between two teams.
type Trade struct {
	ID       uuid.UUID   `json:"id"`
	LeagueID uuid.UUID   `json:"league_id"`
	TeamAID  uuid.UUID   `json:"team_a_id"` // proposer
	TeamBID  uuid.UUID   `json:"team_b_id"`
	GivesA   []uuid.UUID `json:"gives_a"` // pick IDs team A sends to team B
	GivesB   []uuid.UUID `json:"gives_b"`
	Status   TradeStatus `json:"status"`
	// RequiresApproval gates execution behind a host sign-off after acceptance.
	RequiresApproval bool       `json:"requires_approval"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	ProposedAt       time.Time  `json:"proposed_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}
