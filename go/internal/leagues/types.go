package leagues

import (
	"time"

	"github.com/google/uuid"
)

// CreateLeagueRequest asks to convert a completed draft into one scheduled
// season, or two when SplitConferences is set and enough teams exist.
type CreateLeagueRequest struct {
	DraftID          uuid.UUID `json:"draft_id"`
	Name             string    `json:"name"`
	TotalWeeks       int       `json:"total_weeks"`
	SplitConferences bool      `json:"split_conferences"`
}

// RecordResultRequest submits a final score for one fixture.
type RecordResultRequest struct {
	MatchID   uuid.UUID `json:"match_id"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
}

// fixture is one generated pairing before persistence.
type fixture struct {
	Week int
	Home uuid.UUID
	Away uuid.UUID
}

// matchParams is the storage payload for one scheduled match.
type matchParams struct {
	ID         uuid.UUID
	LeagueID   uuid.UUID
	Week       int
	HomeTeamID uuid.UUID
	AwayTeamID uuid.UUID
	CreatedAt  time.Time
}
