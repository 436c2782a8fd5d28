package model

// Occupier answers cell membership queries against a frozen snapshot.
type Occupier interface {
	Contains(p Vec2i) bool
	AnyOccupied(cells ...Vec2i) bool
}

// Occupancy is a read-only snapshot of occupied cells, built once per round
// from the live positions. It never aliases the slice it was built from.
type Occupancy struct {
	cells map[Vec2i]struct{}
}

func BuildOccupancy(positions []Vec2i) Occupancy {
	cells := make(map[Vec2i]struct{}, len(positions))
	for _, p := range positions {
		cells[p] = struct{}{}
	}
	return Occupancy{cells: cells}
}

func (o Occupancy) Contains(p Vec2i) bool {
	_, ok := o.cells[p]
	return ok
}

// AnyOccupied reports whether at least one of cells is occupied.
func (o Occupancy) AnyOccupied(cells ...Vec2i) bool {
	for _, c := range cells {
		if _, ok := o.cells[c]; ok {
			return true
		}
	}
	return false
}

func (o Occupancy) Len() int { return len(o.cells) }
