package world

import (
	"errors"
	"fmt"

	modelpkg "settle.ai/internal/sim/world/kernel/model"
)

var (
	ErrDuplicatePosition = errors.New("duplicate agent position")
	ErrRoundCap          = errors.New("round cap reached before fixed point")
)

// RoundReport summarizes one executed round. Round is the 0-based index of
// the round that just ran.
type RoundReport struct {
	Round     uint64
	Proposed  int
	Moved     int
	Cancelled int
	Digest    string
}

func (r RoundReport) AnyMoved() bool { return r.Moved > 0 }

// World owns the agent arena and the round counter.
// It is not safe for concurrent use; observers receive copies.
type World struct {
	cfg WorldConfig

	agents []Agent
	round  uint64
	phase  Phase

	observer RoundObserver
}

func New(cfg WorldConfig, positions []Vec2i) (*World, error) {
	cfg.applyDefaults()

	seen := make(map[Vec2i]struct{}, len(positions))
	agents := make([]Agent, 0, len(positions))
	for _, p := range positions {
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("world %s: %w at %v", cfg.ID, ErrDuplicatePosition, p)
		}
		seen[p] = struct{}{}
		agents = append(agents, Agent{Pos: p})
	}
	return &World{cfg: cfg, agents: agents}, nil
}

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) ID() string { return w.cfg.ID }

// CurrentRound is the number of rounds executed so far, which is also the
// index of the next round.
func (w *World) CurrentRound() uint64 { return w.round }

func (w *World) Phase() Phase { return w.phase }

func (w *World) AgentCount() int { return len(w.agents) }

// Positions returns a copy of every agent's position, in slot order.
func (w *World) Positions() []Vec2i {
	out := make([]Vec2i, len(w.agents))
	for i, a := range w.agents {
		out[i] = a.Pos
	}
	return out
}

func (w *World) BoundingBox() (Bounds, bool) { return BoundingBox(w.Positions()) }

func (w *World) EmptyTiles() (int, bool) { return EmptyTiles(w.Positions()) }

func (w *World) Digest() string { return w.stateDigest() }

// SetObserver installs o to be notified after every committed round.
// Passing nil removes it.
func (w *World) SetObserver(o RoundObserver) { w.observer = o }

// StepOnce runs exactly one round of the propose/resolve/commit protocol.
func (w *World) StepOnce() RoundReport {
	round := w.round

	w.phase = PhaseSnapshotting
	current := w.Positions()
	occ := modelpkg.BuildOccupancy(current)

	// Every agent decides against the same frozen snapshot.
	w.phase = PhaseProposing
	proposals := make([]Vec2i, len(w.agents))
	proposed := 0
	for i := range w.agents {
		proposals[i] = w.agents[i].Propose(round, occ)
		if proposals[i] != current[i] {
			proposed++
		}
	}

	w.phase = PhaseResolving
	moves, cancelled := ResolveStats(current, proposals)

	w.phase = PhaseCommitting
	for _, m := range moves {
		w.agents[m.Agent].Pos = m.To
	}

	w.round++
	w.phase = PhaseDone

	rep := RoundReport{
		Round:     round,
		Proposed:  proposed,
		Moved:     len(moves),
		Cancelled: cancelled,
		Digest:    w.stateDigest(),
	}
	if w.observer != nil {
		w.observer.ObserveRound(w.cfg.ID, rep, w.Positions())
	}
	return rep
}
