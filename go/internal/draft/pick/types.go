package pick

import (
	"time"

	"github.com/google/uuid"
)

// AttemptPickRequest represents one team's attempt to draft a character on a
// specific global turn.
type AttemptPickRequest struct {
	DraftID     uuid.UUID `json:"draft_id"`
	TeamID      uuid.UUID `json:"team_id"`
	CharacterID string    `json:"character_id"`
	// Turn is the global turn the caller believes it is acting on; the
	// commit only succeeds if the draft still agrees.
	Turn int `json:"turn"`
	// ActorID is who issued the request. Differs from the team's owner on
	// host proxy-picks.
	ActorID    uuid.UUID `json:"actor_id"`
	AutoPicked bool      `json:"auto_picked"`
}

// AuctionAwardRequest converts a resolved auction into a committed pick.
type AuctionAwardRequest struct {
	DraftID     uuid.UUID
	TeamID      uuid.UUID
	CharacterID string
	Cost        int
	Turn        int
}

// CommitPickParams is the storage-level payload for the atomic pick commit.
type CommitPickParams struct {
	PickID      uuid.UUID
	DraftID     uuid.UUID
	TeamID      uuid.UUID
	CharacterID string
	Cost        int
	Round       int
	Turn        int
	RosterSize  int
	// NextDeadline arms the following turn's clock inside the same
	// transaction; nil clears it.
	NextDeadline *time.Time
	AutoPicked   bool
	PickedAt     time.Time
}

// SkipTurnParams is the storage-level payload for a turn consumed without a
// pick.
type SkipTurnParams struct {
	DraftID      uuid.UUID
	Turn         int
	NextDeadline *time.Time
}

// UndoRequest asks to reverse a team's most recent committed pick.
type UndoRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
	TeamID  uuid.UUID `json:"team_id"`
	ActorID uuid.UUID `json:"actor_id"`
}

// UndoParams is the storage-level payload for the atomic undo.
type UndoParams struct {
	PickID  uuid.UUID
	DraftID uuid.UUID
	TeamID  uuid.UUID
	Cost    int
	// RewindTurn is set when the undone pick was also the globally most
	// recent one, in which case current_turn rolls back by one.
	RewindTurn   bool
	OverallPick  int
	NextDeadline *time.Time
}
