package engine

// ManhattanDistance calculates the Manhattan distance between two points
func ManhattanDistance(from, to Point) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// CountTerrain counts the cells of a specific terrain class in the grid
func CountTerrain(grid [][]Cell, terrain Terrain) int {
	count := 0
	for _, row := range grid {
		for _, cell := range row {
			if cell.Terrain == terrain {
				count++
			}
		}
	}
	return count
}

// NextWaypoint returns the first waypoint in visiting order not yet cleared
// and its Manhattan distance from the current position.
func NextWaypoint(state *State) (Waypoint, int, bool) {
	visited := make(map[string]bool, len(state.Visited))
	for _, name := range state.Visited {
		visited[name] = true
	}

	from := state.Start
	if state.Position != nil {
		from = *state.Position
	}

	for _, wp := range state.Waypoints {
		if !visited[wp.Name] {
			return wp, ManhattanDistance(from, wp.Position), true
		}
	}
	return Waypoint{}, 0, false
}

// RemainingCapacity sums the engagements every actor can still take
func RemainingCapacity(actors []Actor) int {
	total := 0
	for _, a := range actors {
		total += a.Capacity
	}
	return total
}

// AssessRoster estimates whether the roster can clear the waypoints not yet
// visited, assuming each takes at least one engagement.
func AssessRoster(state *State) string {
	remaining := len(state.Waypoints) - len(state.Visited)
	if remaining <= 0 {
		return "SAFE: All waypoints cleared"
	}

	capacity := RemainingCapacity(state.Actors)
	switch {
	case capacity == 0:
		return "CRITICAL: Roster exhausted!"
	case capacity < remaining:
		return "DANGER: Not enough capacity for the remaining waypoints!"
	case capacity < remaining*2:
		return "CAUTION: Capacity is running low"
	}
	return "SAFE: Roster sufficient"
}
