package engine

import (
	"fmt"
	"strings"
)

// Grid is a fixed-size rectangle of cells addressed by (x, y)
type Grid struct {
	width  int
	height int
	cells  []Cell
	costs  TerrainCosts
}

// NewGrid creates a grid of plain cells
func NewGrid(width, height int, costs TerrainCosts) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	g := &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
		costs:  costs,
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.cells[y*width+x] = Cell{
				Point:   Point{X: x, Y: y},
				Terrain: Plain,
				Minutes: costs.Plain,
			}
		}
	}
	return g
}

// Width returns the number of columns
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows
func (g *Grid) Height() int { return g.height }

// Costs returns the terrain levels used by toggles
func (g *Grid) Costs() TerrainCosts { return g.costs }

// InBounds reports whether p addresses a cell
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

// Cell returns a copy of the cell at p
func (g *Grid) Cell(p Point) (Cell, bool) {
	c := g.at(p)
	if c == nil {
		return Cell{}, false
	}
	return *c, true
}

func (g *Grid) at(p Point) *Cell {
	if !g.InBounds(p) {
		return nil
	}
	return &g.cells[p.Y*g.width+p.X]
}

// Passable reports whether p is in bounds and enterable
func (g *Grid) Passable(p Point) bool {
	c := g.at(p)
	return c != nil && c.Passable()
}

// Cost returns the minutes charged for entering p
func (g *Grid) Cost(p Point) (float64, bool) {
	c := g.at(p)
	if c == nil || !c.Passable() {
		return 0, false
	}
	return c.Minutes, true
}

// SetTerrain assigns a terrain class and its level cost
func (g *Grid) SetTerrain(p Point, t Terrain) error {
	c := g.at(p)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, p)
	}
	if t == Wall && (c.Start || c.End || c.IsWaypoint()) {
		return fmt.Errorf("%w: %s cannot be a wall", ErrProtectedCell, p)
	}
	c.Terrain = t
	if minutes, ok := g.costs.Minutes(t); ok {
		c.Minutes = minutes
	} else {
		c.Minutes = 0
	}
	return nil
}

// Toggle cycles an ordinary cell through plain, rough and wall
func (g *Grid) Toggle(p Point) (Terrain, error) {
	c := g.at(p)
	if c == nil {
		return Plain, fmt.Errorf("%w: %s", ErrOutOfBounds, p)
	}
	if c.Protected() {
		return c.Terrain, fmt.Errorf("%w: %s", ErrProtectedCell, p)
	}
	next := c.Terrain.Next()
	if err := g.SetTerrain(p, next); err != nil {
		return c.Terrain, err
	}
	return next, nil
}

// MinCost returns the cheapest passable cell cost, or 0 when nothing is passable
func (g *Grid) MinCost() float64 {
	lowest := 0.0
	for i := range g.cells {
		c := &g.cells[i]
		if !c.Passable() {
			continue
		}
		if lowest == 0 || c.Minutes < lowest {
			lowest = c.Minutes
		}
	}
	return lowest
}

// MarkPath flags p as part of the rendered route; marking twice is a no-op
func (g *Grid) MarkPath(p Point) {
	if c := g.at(p); c != nil {
		c.OnPath = true
	}
}

// ClearPath removes every route mark
func (g *Grid) ClearPath() {
	for i := range g.cells {
		g.cells[i].OnPath = false
	}
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{width: g.width, height: g.height, cells: cells, costs: g.costs}
}

// Rows returns a row-major copy of the cells
func (g *Grid) Rows() [][]Cell {
	rows := make([][]Cell, g.height)
	for y := 0; y < g.height; y++ {
		row := make([]Cell, g.width)
		copy(row, g.cells[y*g.width:(y+1)*g.width])
		rows[y] = row
	}
	return rows
}

// Render draws the grid with the layout legend, route cells shown as '*'
func (g *Grid) Render() []string {
	return RenderRows(g.Rows())
}

// RenderRows draws snapshot rows the same way Render draws a live grid
func RenderRows(rows [][]Cell) []string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var line strings.Builder
		for _, c := range row {
			line.WriteByte(CellChar(c))
		}
		lines = append(lines, line.String())
	}
	return lines
}

// CellChar maps a cell to its display character
func CellChar(c Cell) byte {
	switch {
	case c.Start:
		return 'S'
	case c.End:
		return 'E'
	case c.IsWaypoint():
		return 'H'
	case c.OnPath:
		return '*'
	case c.Terrain == Wall:
		return '#'
	case c.Terrain == Rough:
		return '~'
	default:
		return '.'
	}
}
