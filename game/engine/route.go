package engine

// Route is the full ordered point sequence from start to end
type Route []Point

// PlanRoute chains FindPath across start, each waypoint in order, and end.
// Junction points appear once. The first unreachable pair aborts planning.
func PlanRoute(g *Grid, start Point, waypoints []Point, end Point) (Route, error) {
	stops := make([]Point, 0, len(waypoints)+2)
	stops = append(stops, start)
	stops = append(stops, waypoints...)
	stops = append(stops, end)

	var route Route
	for i := 0; i < len(stops)-1; i++ {
		from, to := stops[i], stops[i+1]
		segment, ok := FindPath(g, from, to)
		if !ok {
			return nil, &UnreachableSegmentError{Segment: i, From: from, To: to}
		}
		if i == 0 {
			route = append(route, segment...)
			continue
		}
		route = append(route, segment[1:]...)
	}
	return route, nil
}

// Cost sums the minutes of every point after the first, as read from g now.
// Impassable points are skipped.
func (r Route) Cost(g *Grid) float64 {
	total := 0.0
	for i := 1; i < len(r); i++ {
		if minutes, ok := g.Cost(r[i]); ok {
			total += minutes
		}
	}
	return total
}

// Contains reports whether p lies on the route
func (r Route) Contains(p Point) bool {
	for _, q := range r {
		if q == p {
			return true
		}
	}
	return false
}
