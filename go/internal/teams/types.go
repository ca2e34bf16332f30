package teams

import (
	"github.com/google/uuid"
)

// CreateTeamRequest represents the data needed to register a drafting seat.
type CreateTeamRequest struct {
	ID              uuid.UUID `json:"id"`
	DraftID         uuid.UUID `json:"draft_id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	Name            string    `json:"name"`
	DraftOrderIndex int       `json:"draft_order_index"`
	BudgetTotal     int       `json:"budget_total"`
	UndoQuota       int       `json:"undo_quota"`
}
