package worldtest

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	world "settle.ai/internal/sim/world"
)

func digests(h *Harness, rounds int) []string {
	h.StepN(rounds)
	out := make([]string, len(h.Reports))
	for i, r := range h.Reports {
		out[i] = r.Digest
	}
	return out
}

func TestDeterminism_SameLayoutSameDigests(t *testing.T) {
	text := LoadFixture(t, "large.txt")
	a := digests(NewHarness(t, text), 25)
	b := digests(NewHarness(t, text), 25)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("digest streams differ (-a +b):\n%s", diff)
	}
}

// Agent handles are arbitrary: any slot order yields the same states.
func TestDeterminism_IndependentOfSlotOrder(t *testing.T) {
	h := NewHarness(t, LoadFixture(t, "large.txt"))
	pos := h.W.Positions()
	rev := make([]world.Vec2i, len(pos))
	for i, p := range pos {
		rev[len(pos)-1-i] = p
	}

	a := digests(h, 25)
	b := digests(NewHarnessAt(t, rev), 25)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("digest streams differ (-forward +reversed):\n%s", diff)
	}
}
