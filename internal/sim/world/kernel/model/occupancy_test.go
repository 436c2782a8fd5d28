package model

import "testing"

func TestOccupancy_ContainsAndAny(t *testing.T) {
	pos := []Vec2i{{X: 0, Y: 0}, {X: 2, Y: -1}, {X: -5, Y: 7}}
	occ := BuildOccupancy(pos)

	if occ.Len() != 3 {
		t.Fatalf("len: got %d want 3", occ.Len())
	}
	for _, p := range pos {
		if !occ.Contains(p) {
			t.Fatalf("expected %v occupied", p)
		}
	}
	if occ.Contains(Vec2i{X: 1, Y: 0}) {
		t.Fatalf("(1,0) should be free")
	}
	if !occ.AnyOccupied(Vec2i{X: 9, Y: 9}, Vec2i{X: 2, Y: -1}) {
		t.Fatalf("AnyOccupied should find (2,-1)")
	}
	if occ.AnyOccupied(Vec2i{X: 9, Y: 9}, Vec2i{X: 1, Y: 1}) {
		t.Fatalf("AnyOccupied: unexpected hit")
	}
	if occ.AnyOccupied() {
		t.Fatalf("AnyOccupied with no cells must be false")
	}
}

func TestOccupancy_SnapshotDoesNotAlias(t *testing.T) {
	pos := []Vec2i{{X: 1, Y: 1}}
	occ := BuildOccupancy(pos)
	pos[0] = Vec2i{X: 4, Y: 4}

	if !occ.Contains(Vec2i{X: 1, Y: 1}) {
		t.Fatalf("snapshot lost original cell after source mutation")
	}
	if occ.Contains(Vec2i{X: 4, Y: 4}) {
		t.Fatalf("snapshot observed source mutation")
	}
}

func TestNeighbors8(t *testing.T) {
	c := Vec2i{X: 3, Y: -2}
	seen := map[Vec2i]bool{}
	for _, n := range c.Neighbors8() {
		if n == c {
			t.Fatalf("neighbourhood must exclude the centre")
		}
		dx, dy := n.X-c.X, n.Y-c.Y
		if dx < -1 || dx > 1 || dy < -1 || dy > 1 {
			t.Fatalf("%v is not adjacent to %v", n, c)
		}
		seen[n] = true
	}
	if len(seen) != 8 {
		t.Fatalf("want 8 distinct neighbours, got %d", len(seen))
	}
}
