package worldtest

import (
	"os"
	"sort"
	"strings"
	"testing"

	"settle.ai/internal/sim/layout"
	world "settle.ai/internal/sim/world"
	modelpkg "settle.ai/internal/sim/world/kernel/model"
)

// Harness drives a world through its exported API and checks the collision
// invariant after every round it steps.
type Harness struct {
	T *testing.T
	W *world.World

	Reports []world.RoundReport
}

func NewHarness(t *testing.T, layoutText string) *Harness {
	t.Helper()
	positions, err := layout.ParseString(layoutText, layout.DefaultSymbols())
	if err != nil {
		t.Fatalf("parse layout: %v", err)
	}
	return NewHarnessAt(t, positions)
}

func NewHarnessAt(t *testing.T, positions []world.Vec2i) *Harness {
	t.Helper()
	w, err := world.New(world.WorldConfig{ID: "test"}, positions)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, W: w}
}

// LoadFixture reads a layout from testdata.
func LoadFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("fixture %s: %v", name, err)
	}
	return string(b)
}

func (h *Harness) Step() world.RoundReport {
	h.T.Helper()
	rep := h.W.StepOnce()
	h.Reports = append(h.Reports, rep)
	h.AssertNoCollisions()
	return rep
}

func (h *Harness) StepN(n int) {
	h.T.Helper()
	for i := 0; i < n; i++ {
		h.Step()
	}
}

// StepUntilStable returns the 1-based fixed-point round, failing after limit rounds.
func (h *Harness) StepUntilStable(limit int) uint64 {
	h.T.Helper()
	for i := 0; i < limit; i++ {
		if rep := h.Step(); !rep.AnyMoved() {
			return rep.Round + 1
		}
	}
	h.T.Fatalf("no fixed point within %d rounds", limit)
	return 0
}

// Sorted returns the current positions in row-major order.
func (h *Harness) Sorted() []world.Vec2i {
	return SortPositions(h.W.Positions())
}

func (h *Harness) AssertNoCollisions() {
	h.T.Helper()
	seen := map[world.Vec2i]int{}
	for i, p := range h.W.Positions() {
		if j, dup := seen[p]; dup {
			h.T.Fatalf("round %d: agents %d and %d share %v", h.W.CurrentRound(), j, i, p)
		}
		seen[p] = i
	}
}

// Render draws the current positions, for failure messages.
func (h *Harness) Render() string {
	return strings.TrimRight(layout.Render(h.W.Positions(), layout.DefaultSymbols()), "\n")
}

func SortPositions(in []world.Vec2i) []world.Vec2i {
	out := append([]world.Vec2i(nil), in...)
	sort.Slice(out, func(i, j int) bool { return modelpkg.Less(out[i], out[j]) })
	return out
}
