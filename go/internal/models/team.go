package models

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a participant's roster-in-progress within a draft.
type Team struct {
	ID              uuid.UUID `json:"id"`
	DraftID         uuid.UUID `json:"draft_id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	Name            string    `json:"name"`
	DraftOrderIndex int       `json:"draft_order_index"` // 1..N, unique per draft
	BudgetTotal     int       `json:"budget_total"`
	BudgetRemaining int       `json:"budget_remaining"`
	RosterSize      int       `json:"roster_size"`
	UndosRemaining  int       `json:"undos_remaining"`
	CreatedAt       time.Time `json:"created_at"`
}
