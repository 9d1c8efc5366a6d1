package grid

import "github.com/google/uuid"

// Pos is a cell position (row index, column index)
type Pos struct {
	Row int
	Col int
}

type Direction int

const (
	Up Direction = iota
	Down
	NextCell // Tab
)

// Move computes the next focused cell. Up/Down move one row preserving
// the column; Tab advances a cell, wrapping to the next row, and from the
// last cell of the last row appends a fresh row and focuses its first cell.
func (g *Grid) Move(p Pos, dir Direction) Pos {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.rows) == 0 || len(g.columns) == 0 {
		return p
	}
	p = g.clampLocked(p)

	switch dir {
	case Up:
		if p.Row > 0 {
			p.Row--
		}
	case Down:
		if p.Row < len(g.rows)-1 {
			p.Row++
		}
	case NextCell:
		if p.Col < len(g.columns)-1 {
			p.Col++
		} else if p.Row < len(g.rows)-1 {
			p.Row++
			p.Col = 0
		} else {
			g.rows = append(g.rows, Row{ID: uuid.New().String(), Fields: map[string]string{}})
			g.notifyLocked()
			p.Row = len(g.rows) - 1
			p.Col = 0
		}
	}
	return p
}

func (g *Grid) clampLocked(p Pos) Pos {
	if p.Row < 0 {
		p.Row = 0
	}
	if p.Row >= len(g.rows) {
		p.Row = len(g.rows) - 1
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if p.Col >= len(g.columns) {
		p.Col = len(g.columns) - 1
	}
	return p
}
