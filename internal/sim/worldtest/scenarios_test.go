package worldtest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	world "settle.ai/internal/sim/world"
)

func v(x, y int) world.Vec2i { return world.Vec2i{X: x, Y: y} }

func TestCanonicalFixture_HandComputedRounds(t *testing.T) {
	h := NewHarness(t, LoadFixture(t, "canonical.txt"))

	want := [][]world.Vec2i{
		{v(2, 0), v(3, 0), v(2, 2), v(3, 3), v(2, 4)},
		{v(2, 1), v(3, 1), v(1, 2), v(4, 3), v(2, 5)},
		{v(2, 0), v(4, 1), v(0, 2), v(4, 3), v(2, 5)},
	}
	for i, w := range want {
		h.Step()
		if diff := cmp.Diff(SortPositions(w), h.Sorted()); diff != "" {
			t.Fatalf("after round %d (-want +got):\n%s\n%s", i+1, diff, h.Render())
		}
	}

	// Round 1: (2,2) going south and (2,4) going north both claim (2,3).
	if got := h.Reports[0]; got.Cancelled != 2 || got.Moved != 3 {
		t.Fatalf("round 1 report: %+v", got)
	}
	if n, ok := h.W.EmptyTiles(); !ok || n != 25 {
		t.Fatalf("empty tiles after 3 rounds=%d ok=%v want 25", n, ok)
	}
	if got := h.StepUntilStable(10); got != 4 {
		t.Fatalf("fixed point round=%d want 4", got)
	}
}

func TestLargeFixture_MetricAndFixedPoint(t *testing.T) {
	h := NewHarness(t, LoadFixture(t, "large.txt"))
	if got := h.W.AgentCount(); got != 22 {
		t.Fatalf("agents=%d want 22", got)
	}

	h.StepN(10)
	if n, ok := h.W.EmptyTiles(); !ok || n != 110 {
		t.Fatalf("empty tiles after 10 rounds=%d want 110\n%s", n, h.Render())
	}
	if got := h.StepUntilStable(100); got != 20 {
		t.Fatalf("fixed point round=%d want 20", got)
	}
}

func TestLargeFixture_Run(t *testing.T) {
	h := NewHarness(t, LoadFixture(t, "large.txt"))
	res, err := h.W.Run(context.Background(), world.RunOptions{MetricRounds: 10})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Stable || res.FixedPointRound != 20 || res.Rounds != 20 {
		t.Fatalf("result: %+v", res)
	}
	if !res.EmptyTilesOK || res.EmptyTiles != 110 || res.MetricRound != 10 {
		t.Fatalf("metric: %+v", res)
	}
}

func TestSmallScenarios(t *testing.T) {
	cases := []struct {
		name   string
		start  []world.Vec2i
		rounds [][]world.Vec2i
		fixed  uint64
	}{
		{
			name:  "single agent",
			start: []world.Vec2i{v(5, 5)},
			fixed: 1,
		},
		{
			name:  "horizontal pair",
			start: []world.Vec2i{v(0, 0), v(1, 0)},
			rounds: [][]world.Vec2i{
				{v(0, -1), v(1, -1)},
				{v(0, 0), v(1, 0)},
				{v(-1, 0), v(2, 0)},
			},
			fixed: 4,
		},
		{
			name:  "vertical pair",
			start: []world.Vec2i{v(0, 0), v(0, 1)},
			rounds: [][]world.Vec2i{
				{v(0, -1), v(0, 2)},
			},
			fixed: 2,
		},
		{
			name:  "corner trio",
			start: []world.Vec2i{v(0, 0), v(0, 2), v(1, 0)},
			rounds: [][]world.Vec2i{
				{v(0, -1), v(1, -1), v(0, 2)},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHarnessAt(t, tc.start)
			for i, want := range tc.rounds {
				h.Step()
				if diff := cmp.Diff(SortPositions(want), h.Sorted()); diff != "" {
					t.Fatalf("after round %d (-want +got):\n%s", i+1, diff)
				}
			}
			if tc.fixed == 0 {
				return
			}
			if got := h.StepUntilStable(50); got != tc.fixed {
				t.Fatalf("fixed point round=%d want %d", got, tc.fixed)
			}
		})
	}
}

func TestStability_IsIdempotent(t *testing.T) {
	h := NewHarness(t, LoadFixture(t, "canonical.txt"))
	h.StepUntilStable(10)
	settled := h.Sorted()
	for i := 0; i < 8; i++ {
		if rep := h.Step(); rep.AnyMoved() {
			t.Fatalf("stable world moved in round %d", rep.Round+1)
		}
	}
	if diff := cmp.Diff(settled, h.Sorted()); diff != "" {
		t.Fatalf("positions changed after fixed point (-want +got):\n%s", diff)
	}
}
