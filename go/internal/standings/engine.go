// Package standings derives league tables from completed match results. The
// table is always recomputed from the full result set, so recording the same
// match twice cannot double-count.
package standings

import (
	"sort"

	"github.com/google/uuid"

	"github.com/draftarena/draftarena/go/internal/models"
)

// Fold collapses completed matches into one record per team. Teams without a
// completed match yet still get a zero row.
func Fold(teamIDs []uuid.UUID, matches []models.Match) []models.Standing {
	byTeam := make(map[uuid.UUID]*models.Standing, len(teamIDs))
	for _, id := range teamIDs {
		byTeam[id] = &models.Standing{TeamID: id}
	}

	for _, m := range matches {
		if m.Status != models.MatchStatusCompleted || m.HomeScore == nil || m.AwayScore == nil {
			continue
		}
		home, homeOK := byTeam[m.HomeTeamID]
		away, awayOK := byTeam[m.AwayTeamID]
		if !homeOK || !awayOK {
			continue
		}

		home.PointsFor += *m.HomeScore
		home.PointsAgainst += *m.AwayScore
		away.PointsFor += *m.AwayScore
		away.PointsAgainst += *m.HomeScore

		switch {
		case m.WinnerTeamID == nil:
			home.Draws++
			away.Draws++
		case *m.WinnerTeamID == m.HomeTeamID:
			home.Wins++
			away.Losses++
		default:
			away.Wins++
			home.Losses++
		}
	}

	table := make([]models.Standing, 0, len(byTeam))
	for _, s := range byTeam {
		table = append(table, *s)
	}
	return Rank(table)
}

// Rank orders the table and assigns ranks: wins, then point differential,
// then points for, then team ID as the deterministic last resort.
func Rank(table []models.Standing) []models.Standing {
	sort.Slice(table, func(i, j int) bool {
		a, b := table[i], table[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.PointDifferential() != b.PointDifferential() {
			return a.PointDifferential() > b.PointDifferential()
		}
		if a.PointsFor != b.PointsFor {
			return a.PointsFor > b.PointsFor
		}
		return a.TeamID.String() < b.TeamID.String()
	})
	for i := range table {
		table[i].Rank = i + 1
	}
	return table
}
