package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "SCHEDULED"
	MatchStatusCompleted MatchStatus = "COMPLETED"
)

// Match represents one scheduled fixture.
type Match struct {
	ID           uuid.UUID   `json:"id"`
	LeagueID     uuid.UUID   `json:"league_id"`
	Week         int         `json:"week"`
	HomeTeamID   uuid.UUID   `json:"home_team_id"`
	AwayTeamID   uuid.UUID   `json:"away_team_id"`
	Status       MatchStatus `json:"status"`
	HomeScore    *int        `json:"home_score,omitempty"`
	AwayScore    *int        `json:"away_score,omitempty"`
	WinnerTeamID *uuid.UUID  `json:"winner_team_id,omitempty"` // nil for draws and unplayed fixtures
	CreatedAt    time.Time   `json:"created_at"`
}
