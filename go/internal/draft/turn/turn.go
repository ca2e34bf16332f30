// Package turn computes snake-draft turn order. Everything here is a pure
// function of the global turn number and the seat count so that server-side
// validation and client replay always agree.
package turn

// RoundOf returns the 1-indexed round containing global turn t for n seats.
func RoundOf(t, n int) int {
	return (t-1)/n + 1
}

// SlotInRound returns the 1-indexed position of turn t within its round.
func SlotInRound(t, n int) int {
	return (t-1)%n + 1
}

// SeatAt returns the 1-indexed draft-order seat that acts at global turn t.
// Direction reverses on even rounds: the seat that picked last in an odd
// round picks first in the following even round.
func SeatAt(t, n int) int {
	slot := SlotInRound(t, n)
	if RoundOf(t, n)%2 == 0 {
		return n - slot + 1
	}
	return slot
}

// NominatorAt returns the seat whose nomination turn it is in an auction
// draft. Nomination order follows the same snake sequence as pick order,
// independent of who wins each auction.
func NominatorAt(nomination, n int) int {
	return SeatAt(nomination, n)
}

// TotalPicks returns the number of turns a draft of n seats and the given
// roster target will consume.
func TotalPicks(n, rosterSize int) int {
	return n * rosterSize
}
