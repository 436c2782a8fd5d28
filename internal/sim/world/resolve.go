package world

import "fmt"

// Move is an accepted proposal: agent slot Agent goes From -> To.
type Move struct {
	Agent int
	From  Vec2i
	To    Vec2i
}

// Resolve filters proposals down to the moves that may be committed.
// current[i] and proposals[i] belong to the same agent.
func Resolve(current, proposals []Vec2i) []Move {
	moves, _ := ResolveStats(current, proposals)
	return moves
}

// ResolveStats is Resolve plus the number of move proposals that were
// cancelled.
//
// A destination claimed by more than one agent is dropped for every claimant;
// nobody wins a tie. A destination that was occupied when the round started is
// also dropped, so a cancelled agent can never be walked into.
func ResolveStats(current, proposals []Vec2i) ([]Move, int) {
	if len(current) != len(proposals) {
		panic(fmt.Sprintf("world: resolve: %d positions vs %d proposals", len(current), len(proposals)))
	}

	claims := make(map[Vec2i]int, len(proposals))
	for _, p := range proposals {
		claims[p]++
	}
	occupied := make(map[Vec2i]struct{}, len(current))
	for _, p := range current {
		occupied[p] = struct{}{}
	}

	moves := make([]Move, 0, len(proposals))
	cancelled := 0
	for i, to := range proposals {
		from := current[i]
		if to == from {
			continue
		}
		if claims[to] > 1 {
			cancelled++
			continue
		}
		if _, taken := occupied[to]; taken {
			cancelled++
			continue
		}
		moves = append(moves, Move{Agent: i, From: from, To: to})
	}
	return moves, cancelled
}
