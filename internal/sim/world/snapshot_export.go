package world

import (
	"settle.ai/internal/persistence/snapshot"
	simenc "settle.ai/internal/sim/encoding"
)

// ExportSnapshot captures the current positions and round counter.
// stable records whether the last round committed no move.
func (w *World) ExportSnapshot(runID string, stable bool) snapshot.SnapshotV1 {
	positions := w.Positions()
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			RunID:   runID,
			Round:   w.round,
		},
		Digest: StateDigest(w.round, positions),
		Stable: stable,
		Agents: len(positions),
	}

	b, ok := BoundingBox(positions)
	if !ok {
		return snap
	}
	snap.Origin = [2]int{b.MinX, b.MinY}
	snap.Width = b.Width()
	snap.Height = b.Height()

	grid := make([][]bool, b.Height())
	for y := range grid {
		grid[y] = make([]bool, b.Width())
	}
	for _, p := range positions {
		grid[p.Y-b.MinY][p.X-b.MinX] = true
	}
	snap.Rows = make([]string, len(grid))
	for y, row := range grid {
		snap.Rows[y] = simenc.EncodeRow(row)
	}
	return snap
}
