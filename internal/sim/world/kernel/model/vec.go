package model

import "fmt"

// Vec2i is a cell on the unbounded plane. Y grows downward (row index).
type Vec2i struct {
	X int
	Y int
}

func (v Vec2i) Add(o Vec2i) Vec2i { return Vec2i{X: v.X + o.X, Y: v.Y + o.Y} }

func (v Vec2i) ToArray() [2]int { return [2]int{v.X, v.Y} }

func (v Vec2i) String() string { return fmt.Sprintf("(%d,%d)", v.X, v.Y) }

func Vec2iFromArray(a [2]int) Vec2i { return Vec2i{X: a[0], Y: a[1]} }

// mooreOffsets lists the 8 surrounding cells, row by row.
var mooreOffsets = [8]Vec2i{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// Neighbors8 returns the Moore neighbourhood of v.
func (v Vec2i) Neighbors8() [8]Vec2i {
	var out [8]Vec2i
	for i, o := range mooreOffsets {
		out[i] = v.Add(o)
	}
	return out
}

// Less orders cells row-major (Y, then X). Used wherever a stable order over
// positions is needed (digests, snapshots).
func Less(a, b Vec2i) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
