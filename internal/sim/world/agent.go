package world

import (
	modelpkg "settle.ai/internal/sim/world/kernel/model"
	"settle.ai/internal/sim/world/logic/movement"
)

// Agent is a position record. Agents have no identity beyond their slot in
// the world's agent slice.
type Agent struct {
	Pos Vec2i
}

// Propose returns the cell the agent wants to occupy after this round, or its
// current position when it stays.
func (a *Agent) Propose(round uint64, occ modelpkg.Occupier) Vec2i {
	return movement.Propose(a.Pos, round, occ)
}
