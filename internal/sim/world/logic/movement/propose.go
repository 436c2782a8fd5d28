package movement

import modelpkg "settle.ai/internal/sim/world/kernel/model"

// Propose computes where an agent at pos wants to go in the given round.
// It only reads occ, so it is safe to evaluate for every agent in any order.
// Staying put is reported as pos itself.
func Propose(pos modelpkg.Vec2i, round uint64, occ modelpkg.Occupier) modelpkg.Vec2i {
	around := pos.Neighbors8()
	if !occ.AnyOccupied(around[:]...) {
		return pos
	}

	for _, d := range DirectionsForRound(round) {
		checks := d.Checks()
		var cells [3]modelpkg.Vec2i
		for i, o := range checks {
			cells[i] = pos.Add(o)
		}
		if !occ.AnyOccupied(cells[:]...) {
			return pos.Add(d.Step())
		}
	}
	return pos
}
