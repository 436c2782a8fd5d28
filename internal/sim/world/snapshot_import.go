package world

import (
	"fmt"

	"settle.ai/internal/persistence/snapshot"
	simenc "settle.ai/internal/sim/encoding"
)

// PositionsFromSnapshot decodes the occupancy rows of snap.
func PositionsFromSnapshot(snap snapshot.SnapshotV1) ([]Vec2i, error) {
	if snap.Agents == 0 {
		return nil, nil
	}
	if snap.Width <= 0 || snap.Height <= 0 || len(snap.Rows) != snap.Height {
		return nil, fmt.Errorf("snapshot: bad grid %dx%d with %d rows", snap.Width, snap.Height, len(snap.Rows))
	}
	out := make([]Vec2i, 0, snap.Agents)
	for y, enc := range snap.Rows {
		row, err := simenc.DecodeRow(enc, snap.Width)
		if err != nil {
			return nil, fmt.Errorf("snapshot: row %d: %w", y, err)
		}
		if len(row) != snap.Width {
			return nil, fmt.Errorf("snapshot: row %d has %d cells, want %d", y, len(row), snap.Width)
		}
		for x, occupied := range row {
			if occupied {
				out = append(out, Vec2i{X: snap.Origin[0] + x, Y: snap.Origin[1] + y})
			}
		}
	}
	if len(out) != snap.Agents {
		return nil, fmt.Errorf("snapshot: decoded %d agents, header says %d", len(out), snap.Agents)
	}
	return out, nil
}

// ImportSnapshot replaces the agents and round counter with the snapshot's.
// The stored digest must match the decoded state.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) error {
	positions, err := PositionsFromSnapshot(snap)
	if err != nil {
		return err
	}
	if got := StateDigest(snap.Header.Round, positions); snap.Digest != "" && got != snap.Digest {
		return fmt.Errorf("snapshot: digest mismatch: got=%s want=%s", got, snap.Digest)
	}

	agents := make([]Agent, len(positions))
	for i, p := range positions {
		agents[i] = Agent{Pos: p}
	}
	w.agents = agents
	w.round = snap.Header.Round
	w.phase = PhaseIdle
	return nil
}
