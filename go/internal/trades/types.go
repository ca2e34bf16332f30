package trades

import (
	"github.com/google/uuid"
)

// ProposeTradeRequest opens a trade from team A (the proposer) to team B.
type ProposeTradeRequest struct {
	LeagueID         uuid.UUID   `json:"league_id"`
	TeamAID          uuid.UUID   `json:"team_a_id"`
	TeamBID          uuid.UUID   `json:"team_b_id"`
	GivesA           []uuid.UUID `json:"gives_a"`
	GivesB           []uuid.UUID `json:"gives_b"`
	RequiresApproval bool        `json:"requires_approval"`
	ActorID          uuid.UUID   `json:"actor_id"`
}

// RespondRequest accepts, rejects, cancels, or approves a proposed trade.
type RespondRequest struct {
	TradeID uuid.UUID `json:"trade_id"`
	ActorID uuid.UUID `json:"actor_id"`
}
