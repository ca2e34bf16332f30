package turn

import "testing"

func TestSeatAt(t *testing.T) {
	cases := []struct {
		name string
		turn int
		n    int
		want int
	}{
		{name: "first turn goes to seat 1", turn: 1, n: 4, want: 1},
		{name: "last turn of round 1 goes to seat n", turn: 4, n: 4, want: 4},
		{name: "round 2 opens in reverse", turn: 5, n: 4, want: 4},
		{name: "round 2 closes at seat 1", turn: 8, n: 4, want: 1},
		{name: "round 3 flips forward again", turn: 9, n: 4, want: 1},
		{name: "single seat always acts", turn: 7, n: 1, want: 1},
		{name: "two seats alternate in pairs", turn: 3, n: 2, want: 2},
		{name: "two seats round 2 slot 2", turn: 4, n: 2, want: 1},
		{name: "six seats round 3 runs forward", turn: 15, n: 6, want: 3},
		{name: "six seats round 2 runs backward", turn: 9, n: 6, want: 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SeatAt(tc.turn, tc.n); got != tc.want {
				t.Fatalf("SeatAt(%d, %d) = %d, want %d", tc.turn, tc.n, got, tc.want)
			}
		})
	}
}

func TestSeatAtIsDeterministic(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for turn := 1; turn <= TotalPicks(n, 6); turn++ {
			if SeatAt(turn, n) != SeatAt(turn, n) {
				t.Fatalf("SeatAt(%d, %d) not stable", turn, n)
			}
		}
	}
}

// Direction must reverse exactly on even rounds: the seat acting at the same
// slot in consecutive rounds differs whenever there is more than one seat.
func TestDirectionReversesEachRound(t *testing.T) {
	for n := 2; n <= 10; n++ {
		for r := 1; r < 6; r++ {
			for slot := 1; slot <= n; slot++ {
				// Odd seat counts pivot around the middle slot, which keeps
				// the same seat in consecutive rounds.
				if n%2 == 1 && slot == (n+1)/2 {
					continue
				}
				cur := SeatAt((r-1)*n+slot, n)
				next := SeatAt(r*n+slot, n)
				if cur == next {
					t.Fatalf("n=%d round=%d slot=%d: seat %d repeated across rounds", n, r, slot, cur)
				}
			}
		}
	}
}

func TestEveryRoundCoversAllSeats(t *testing.T) {
	for n := 1; n <= 10; n++ {
		for r := 1; r <= 4; r++ {
			seen := make(map[int]bool, n)
			for slot := 1; slot <= n; slot++ {
				seat := SeatAt((r-1)*n+slot, n)
				if seat < 1 || seat > n {
					t.Fatalf("n=%d turn=%d: seat %d out of range", n, (r-1)*n+slot, seat)
				}
				if seen[seat] {
					t.Fatalf("n=%d round=%d: seat %d acted twice", n, r, seat)
				}
				seen[seat] = true
			}
		}
	}
}

func TestRoundAndSlot(t *testing.T) {
	if got := RoundOf(5, 4); got != 2 {
		t.Fatalf("RoundOf(5, 4) = %d, want 2", got)
	}
	if got := SlotInRound(5, 4); got != 1 {
		t.Fatalf("SlotInRound(5, 4) = %d, want 1", got)
	}
	if got := TotalPicks(4, 6); got != 24 {
		t.Fatalf("TotalPicks(4, 6) = %d, want 24", got)
	}
}

func TestNominatorFollowsSnake(t *testing.T) {
	for nom := 1; nom <= 16; nom++ {
		if NominatorAt(nom, 4) != SeatAt(nom, 4) {
			t.Fatalf("nomination %d diverges from snake order", nom)
		}
	}
}
