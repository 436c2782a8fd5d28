package movement

import modelpkg "settle.ai/internal/sim/world/kernel/model"

type Direction uint8

const (
	North Direction = iota
	South
	West
	East
)

// baseOrder is the round-0 priority. Each later round rotates it left by one.
var baseOrder = [4]Direction{North, South, West, East}

func (d Direction) String() string {
	switch d {
	case North:
		return "N"
	case South:
		return "S"
	case West:
		return "W"
	case East:
		return "E"
	default:
		return "?"
	}
}

// Step is the destination offset of a move in direction d.
func (d Direction) Step() modelpkg.Vec2i {
	switch d {
	case North:
		return modelpkg.Vec2i{Y: -1}
	case South:
		return modelpkg.Vec2i{Y: 1}
	case West:
		return modelpkg.Vec2i{X: -1}
	case East:
		return modelpkg.Vec2i{X: 1}
	}
	return modelpkg.Vec2i{}
}

// Checks returns the three offsets that must all be free before a move in
// direction d is viable: the destination and its two diagonal flanks.
func (d Direction) Checks() [3]modelpkg.Vec2i {
	switch d {
	case North:
		return [3]modelpkg.Vec2i{{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1}}
	case South:
		return [3]modelpkg.Vec2i{{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	case West:
		return [3]modelpkg.Vec2i{{X: -1, Y: -1}, {X: -1, Y: 0}, {X: -1, Y: 1}}
	case East:
		return [3]modelpkg.Vec2i{{X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	}
	return [3]modelpkg.Vec2i{}
}

// DirectionsForRound returns the priority order used in the given round:
// {N, S, W, E} rotated left by round mod 4.
func DirectionsForRound(round uint64) [4]Direction {
	shift := int(round % 4)
	var out [4]Direction
	for i := range out {
		out[i] = baseOrder[(i+shift)%4]
	}
	return out
}
