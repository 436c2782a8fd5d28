package world

import "testing"

func TestBoundingBox(t *testing.T) {
	cases := []struct {
		name      string
		positions []Vec2i
		want      Bounds
		empty     int
	}{
		{
			name:      "single",
			positions: []Vec2i{{X: 4, Y: -2}},
			want:      Bounds{MinX: 4, MaxX: 4, MinY: -2, MaxY: -2},
			empty:     0,
		},
		{
			// Away from the origin: the origin must not be pulled into the box.
			name:      "offset",
			positions: []Vec2i{{X: 10, Y: 10}, {X: 12, Y: 11}},
			want:      Bounds{MinX: 10, MaxX: 12, MinY: 10, MaxY: 11},
			empty:     4,
		},
		{
			name:      "settled canonical fixture",
			positions: []Vec2i{{X: 0, Y: 2}, {X: 2, Y: 0}, {X: 2, Y: 5}, {X: 4, Y: 1}, {X: 4, Y: 3}},
			want:      Bounds{MinX: 0, MaxX: 4, MinY: 0, MaxY: 5},
			empty:     25,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := BoundingBox(tc.positions)
			if !ok {
				t.Fatalf("expected bounds")
			}
			if got != tc.want {
				t.Fatalf("bounds: got %+v want %+v", got, tc.want)
			}
			empty, ok := EmptyTiles(tc.positions)
			if !ok || empty != tc.empty {
				t.Fatalf("empty tiles: got %d (ok=%v) want %d", empty, ok, tc.empty)
			}
		})
	}
}

func TestBoundingBox_NoAgents(t *testing.T) {
	if _, ok := BoundingBox(nil); ok {
		t.Fatalf("expected ok=false for no agents")
	}
	if _, ok := EmptyTiles(nil); ok {
		t.Fatalf("expected ok=false for no agents")
	}
}
