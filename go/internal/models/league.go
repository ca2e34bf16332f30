package models

import (
	"time"

	"github.com/google/uuid"
)

// LeagueType distinguishes a single league from a seeded conference half.
type LeagueType string

const (
	LeagueTypeSingle      LeagueType = "SINGLE"
	LeagueTypeConferenceA LeagueType = "CONFERENCE_A"
	LeagueTypeConferenceB LeagueType = "CONFERENCE_B"
)

type LeagueStatus string

const (
	LeagueStatusActive    LeagueStatus = "ACTIVE"
	LeagueStatusCompleted LeagueStatus = "COMPLETED"
)

// League represents a scheduled season derived from one completed draft.
type League struct {
	ID          uuid.UUID    `json:"id"`
	DraftID     uuid.UUID    `json:"draft_id"`
	Name        string       `json:"name"`
	Type        LeagueType   `json:"type"`
	Status      LeagueStatus `json:"status"`
	TeamIDs     []uuid.UUID  `json:"team_ids"` // seeded order
	TotalWeeks  int          `json:"total_weeks"`
	CurrentWeek int          `json:"current_week"` // <= total_weeks+1
	CreatedAt   time.Time    `json:"created_at"`
}
