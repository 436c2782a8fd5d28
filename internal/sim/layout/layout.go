// Package layout reads and writes the text grid used to seed a run.
// Row index grows downward, column index grows rightward, and the first
// character of the first line is (0,0).
package layout

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	modelpkg "settle.ai/internal/sim/world/kernel/model"
)

var ErrUnknownSymbol = errors.New("unknown layout symbol")

type Symbols struct {
	Agent rune
	Empty rune
}

func DefaultSymbols() Symbols { return Symbols{Agent: '#', Empty: '.'} }

// SymbolError reports the first unrecognized character.
type SymbolError struct {
	Row  int
	Col  int
	Char rune
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("layout: row %d col %d: %v %q", e.Row, e.Col, ErrUnknownSymbol, e.Char)
}

func (e *SymbolError) Unwrap() error { return ErrUnknownSymbol }

// Parse returns the occupied cells in row-major order. Trailing whitespace on
// each line is ignored, rows may have different lengths.
func Parse(r io.Reader, sym Symbols) ([]modelpkg.Vec2i, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var out []modelpkg.Vec2i
	row := 0
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		col := 0
		for _, c := range line {
			switch c {
			case sym.Agent:
				out = append(out, modelpkg.Vec2i{X: col, Y: row})
			case sym.Empty:
			default:
				return nil, &SymbolError{Row: row, Col: col, Char: c}
			}
			col++
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("layout: read: %w", err)
	}
	return out, nil
}

func ParseString(s string, sym Symbols) ([]modelpkg.Vec2i, error) {
	return Parse(strings.NewReader(s), sym)
}

// Render draws the bounding rectangle of positions, one line per row, each
// terminated by a newline. No positions renders as the empty string.
func Render(positions []modelpkg.Vec2i, sym Symbols) string {
	if len(positions) == 0 {
		return ""
	}
	minX, maxX := positions[0].X, positions[0].X
	minY, maxY := positions[0].Y, positions[0].Y
	occ := make(map[modelpkg.Vec2i]bool, len(positions))
	for _, p := range positions {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		occ[p] = true
	}

	var b strings.Builder
	b.Grow((maxX - minX + 2) * (maxY - minY + 1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if occ[modelpkg.Vec2i{X: x, Y: y}] {
				b.WriteRune(sym.Agent)
			} else {
				b.WriteRune(sym.Empty)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
