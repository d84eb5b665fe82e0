package engine

// SurroundingCell is one of the 8 cells around an inspected point
type SurroundingCell struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	Terrain Terrain `json:"terrain"`
	Symbol  string  `json:"symbol"`
}

// Surroundings lists the 8 cells around p clockwise from north.
// Out of bounds counts as wall.
func (g *Grid) Surroundings(p Point) []SurroundingCell {
	directions := []struct{ dx, dy int }{
		{0, -1},  // North
		{1, -1},  // North-East
		{1, 0},   // East
		{1, 1},   // South-East
		{0, 1},   // South
		{-1, 1},  // South-West
		{-1, 0},  // West
		{-1, -1}, // North-West
	}

	surroundings := make([]SurroundingCell, len(directions))
	for i, dir := range directions {
		q := Point{X: p.X + dir.dx, Y: p.Y + dir.dy}
		sc := SurroundingCell{X: q.X, Y: q.Y, Terrain: Wall, Symbol: "#"}
		if c := g.at(q); c != nil {
			sc.Terrain = c.Terrain
			sc.Symbol = string(CellChar(*c))
		}
		surroundings[i] = sc
	}
	return surroundings
}

// OpenNeighbors returns the passable 4-connected neighbors of p
func (g *Grid) OpenNeighbors(p Point) []Point {
	var open []Point
	for _, d := range neighborOffsets {
		q := Point{X: p.X + d.X, Y: p.Y + d.Y}
		if g.Passable(q) {
			open = append(open, q)
		}
	}
	return open
}
