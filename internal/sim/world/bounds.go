package world

// Bounds is the smallest axis-aligned rectangle holding every agent.
// Both ends are inclusive.
type Bounds struct {
	MinX int `json:"min_x"`
	MaxX int `json:"max_x"`
	MinY int `json:"min_y"`
	MaxY int `json:"max_y"`
}

func (b Bounds) Width() int  { return b.MaxX - b.MinX + 1 }
func (b Bounds) Height() int { return b.MaxY - b.MinY + 1 }
func (b Bounds) Area() int   { return b.Width() * b.Height() }

// BoundingBox returns ok=false when positions is empty.
func BoundingBox(positions []Vec2i) (Bounds, bool) {
	if len(positions) == 0 {
		return Bounds{}, false
	}
	first := positions[0]
	b := Bounds{MinX: first.X, MaxX: first.X, MinY: first.Y, MaxY: first.Y}
	for _, p := range positions[1:] {
		b.MinX = min(b.MinX, p.X)
		b.MaxX = max(b.MaxX, p.X)
		b.MinY = min(b.MinY, p.Y)
		b.MaxY = max(b.MaxY, p.Y)
	}
	return b, true
}

// EmptyTiles counts the free cells inside the bounding box.
func EmptyTiles(positions []Vec2i) (int, bool) {
	b, ok := BoundingBox(positions)
	if !ok {
		return 0, false
	}
	return b.Area() - len(positions), true
}
