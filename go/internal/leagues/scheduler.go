package leagues

import (
	"math/rand"

	"github.com/google/uuid"
)

// pairKey is an unordered team pair, normalized so (a,b) == (b,a).
type pairKey [2]uuid.UUID

func pairOf(a, b uuid.UUID) pairKey {
	if b.String() < a.String() {
		a, b = b, a
	}
	return pairKey{a, b}
}

// buildSchedule generates a season of fixtures for one league. Each week
// every team appears in exactly one match (one team sits idle when the count
// is odd). Pairings prefer opponents the team has not met yet this season;
// when no fresh opponent remains the pairing repeats rather than leaving the
// week short. Home and away alternate by keeping each team's home count as
// level as possible. Weeks are generated independently, so no partial-week
// state survives into the next week.
func buildSchedule(teamIDs []uuid.UUID, totalWeeks int, rng *rand.Rand) []fixture {
	if len(teamIDs) < 2 || totalWeeks < 1 {
		return nil
	}

	history := make(map[pairKey]bool)
	homeCount := make(map[uuid.UUID]int, len(teamIDs))
	var fixtures []fixture

	for week := 1; week <= totalWeeks; week++ {
		pool := make([]uuid.UUID, len(teamIDs))
		copy(pool, teamIDs)
		rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		if len(pool)%2 == 1 {
			// The shuffle makes the bye effectively random each week.
			pool = pool[:len(pool)-1]
		}

		for len(pool) >= 2 {
			a := pool[0]
			pool = pool[1:]

			partner := -1
			for i, candidate := range pool {
				if !history[pairOf(a, candidate)] {
					partner = i
					break
				}
			}
			if partner == -1 {
				// Every remaining opponent is a rematch; take one anyway so
				// the week stays full.
				partner = 0
			}
			b := pool[partner]
			pool = append(pool[:partner], pool[partner+1:]...)

			history[pairOf(a, b)] = true
			home, away := a, b
			if homeCount[a] > homeCount[b] {
				home, away = b, a
			}
			homeCount[home]++
			fixtures = append(fixtures, fixture{Week: week, Home: home, Away: away})
		}
	}
	return fixtures
}

// splitBySeed partitions a seeded team list into two conference halves.
func splitBySeed(teamIDs []uuid.UUID) (confA, confB []uuid.UUID) {
	half := len(teamIDs) / 2
	return teamIDs[:half], teamIDs[half:]
}
