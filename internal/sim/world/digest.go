package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"

	modelpkg "settle.ai/internal/sim/world/kernel/model"
)

// StateDigest hashes the round counter and the agent positions in row-major
// order, so two worlds with the same cells agree regardless of slot order.
func StateDigest(round uint64, positions []Vec2i) string {
	sorted := make([]Vec2i, len(positions))
	copy(sorted, positions)
	sort.Slice(sorted, func(i, j int) bool { return modelpkg.Less(sorted[i], sorted[j]) })

	h := sha256.New()
	var tmp [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		h.Write(tmp[:])
	}
	writeU64(round)
	writeU64(uint64(len(sorted)))
	for _, p := range sorted {
		writeU64(uint64(int64(p.X)))
		writeU64(uint64(int64(p.Y)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) stateDigest() string {
	return StateDigest(w.round, w.Positions())
}
