package models

import (
	"time"

	"github.com/google/uuid"
)

// Standing is a team's derived won/lost/drawn record within a league.
type Standing struct {
	LeagueID      uuid.UUID `json:"league_id"`
	TeamID        uuid.UUID `json:"team_id"`
	Wins          int       `json:"wins"`
	Losses        int       `json:"losses"`
	Draws         int       `json:"draws"`
	PointsFor     int       `json:"points_for"`
	PointsAgainst int       `json:"points_against"`
	Rank          int       `json:"rank"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PointDifferential returns points for minus points against.
func (s *Standing) PointDifferential() int {
	return s.PointsFor - s.PointsAgainst
}

// MatchesPlayed returns the number of completed matches folded into this record.
func (s *Standing) MatchesPlayed() int {
	return s.Wins + s.Losses + s.Draws
}
