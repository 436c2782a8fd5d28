package world

import "testing"

func TestResolve_ConflictsCancel(t *testing.T) {
	current := []Vec2i{{X: 2, Y: 1}, {X: 3, Y: 1}, {X: 2, Y: 2}, {X: 2, Y: 4}, {X: 3, Y: 4}}
	proposals := []Vec2i{{X: 2, Y: 0}, {X: 3, Y: 0}, {X: 2, Y: 3}, {X: 2, Y: 3}, {X: 3, Y: 3}}

	moves, cancelled := ResolveStats(current, proposals)
	if cancelled != 2 {
		t.Fatalf("cancelled: got %d want 2", cancelled)
	}
	want := []Move{
		{Agent: 0, From: Vec2i{X: 2, Y: 1}, To: Vec2i{X: 2, Y: 0}},
		{Agent: 1, From: Vec2i{X: 3, Y: 1}, To: Vec2i{X: 3, Y: 0}},
		{Agent: 4, From: Vec2i{X: 3, Y: 4}, To: Vec2i{X: 3, Y: 3}},
	}
	if len(moves) != len(want) {
		t.Fatalf("moves: got %+v want %+v", moves, want)
	}
	for i := range want {
		if moves[i] != want[i] {
			t.Fatalf("move %d: got %+v want %+v", i, moves[i], want[i])
		}
	}
}

func TestResolve_ThreeWayConflict(t *testing.T) {
	current := []Vec2i{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 2}}
	target := Vec2i{X: 1, Y: 1}
	proposals := []Vec2i{target, target, target}

	moves, cancelled := ResolveStats(current, proposals)
	if len(moves) != 0 || cancelled != 3 {
		t.Fatalf("got moves=%v cancelled=%d, want none and 3", moves, cancelled)
	}
}

func TestResolve_StaysAreNoOps(t *testing.T) {
	current := []Vec2i{{X: 0, Y: 0}, {X: 5, Y: 5}}
	proposals := []Vec2i{{X: 0, Y: 0}, {X: 5, Y: 4}}

	moves, cancelled := ResolveStats(current, proposals)
	if cancelled != 0 {
		t.Fatalf("cancelled: got %d want 0", cancelled)
	}
	if len(moves) != 1 || moves[0].Agent != 1 || moves[0].To != (Vec2i{X: 5, Y: 4}) {
		t.Fatalf("unexpected moves: %+v", moves)
	}
}

func TestResolve_NeverEntersOccupiedCell(t *testing.T) {
	// Agent 1's move is cancelled by a conflict with agent 2, so the cell it
	// stands on stays taken; agent 0 must not be let in.
	current := []Vec2i{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 2}}
	proposals := []Vec2i{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 1}}

	moves, cancelled := ResolveStats(current, proposals)
	if len(moves) != 0 {
		t.Fatalf("expected no moves, got %+v", moves)
	}
	if cancelled != 3 {
		t.Fatalf("cancelled: got %d want 3", cancelled)
	}
}

func TestResolve_LengthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Resolve([]Vec2i{{}}, nil)
}
