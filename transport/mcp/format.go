package mcp

import (
	"fmt"
	"math"
	"strings"

	"github.com/wricardo/mcp-training/sanctuary/game/engine"
	"github.com/wricardo/mcp-training/sanctuary/game/service"
)

func formatSessionInfo(info *service.SessionInfo) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Session: %s\n", info.ID))
	sb.WriteString(fmt.Sprintf("Config: %s\n", info.ConfigName))
	sb.WriteString(fmt.Sprintf("Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Last Accessed: %s\n", info.LastAccessedAt.Format("2006-01-02 15:04:05")))
	if info.Replaying {
		sb.WriteString("Replay: running\n")
	}
	if info.State != nil {
		sb.WriteString("\n")
		sb.WriteString(formatState(info.State))
	}
	return sb.String()
}

// formatState renders the grid with a status header
func formatState(state *engine.State) string {
	if state == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s | Status: %s | Total: %d min\n", state.Name, strings.ToUpper(string(state.Status)), state.RoundedMinutes))
	if state.Position != nil {
		sb.WriteString(fmt.Sprintf("Position: %s (step %d of %d)\n", *state.Position, state.Cursor, len(state.Route)))
	}
	if state.NextWaypoint != "" {
		sb.WriteString(fmt.Sprintf("Next house: %s\n", state.NextWaypoint))
	}
	if state.RosterRisk != "" {
		sb.WriteString(fmt.Sprintf("Roster: %s\n", state.RosterRisk))
	}
	if state.Failure != "" {
		sb.WriteString(fmt.Sprintf("Failure: %s\n", state.Failure))
	}

	sb.WriteString("\nGrid:\n")
	for y, line := range engine.RenderRows(state.Grid) {
		if p := state.Position; p != nil && p.Y == y && !state.Grid[y][p.X].Protected() {
			line = line[:p.X] + "@" + line[p.X+1:]
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\nLegend: S=start E=end H=house .=plain ~=rough #=wall *=route @=current\n\n")

	sb.WriteString(formatHouses(state))
	sb.WriteString("\n")
	sb.WriteString(formatRoster(state.Actors))
	return sb.String()
}

func formatHouses(state *engine.State) string {
	visited := make(map[string]bool, len(state.Visited))
	for _, name := range state.Visited {
		visited[name] = true
	}

	var sb strings.Builder
	sb.WriteString("Houses:\n")
	for i, wp := range state.Waypoints {
		mark := " "
		if visited[wp.Name] {
			mark = "x"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %2d. %-12s %s difficulty %g\n", mark, i+1, wp.Name, wp.Position, wp.Difficulty))
	}
	return sb.String()
}

func formatRoster(actors []engine.Actor) string {
	var sb strings.Builder
	sb.WriteString("Saints:\n")
	for _, a := range actors {
		sb.WriteString(fmt.Sprintf("  %-10s power %-5g capacity %d\n", a.Name, a.Power, a.Capacity))
	}
	return sb.String()
}

func formatRouteResult(result *service.RouteResult) string {
	var sb strings.Builder
	sb.WriteString(result.Message)
	sb.WriteString("\n")
	if result.Length > 0 {
		sb.WriteString(fmt.Sprintf("Route: %d cells, %g terrain minutes\n", result.Length, result.PlannedMinutes))
	}
	if result.Background {
		sb.WriteString("Replay running in the background; use await_replay or session_state to follow it\n")
	}
	sb.WriteString("\n")
	sb.WriteString(formatState(result.State))
	return sb.String()
}

func formatStepResult(result *service.StepResult) string {
	var sb strings.Builder
	sb.WriteString(formatStep(result.Step))
	if result.Message != "" {
		sb.WriteString(result.Message)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(formatState(result.State))
	return sb.String()
}

func formatStep(rec engine.StepRecord) string {
	line := fmt.Sprintf("#%d %s +%g min", rec.Index, rec.Position, rec.Minutes)
	if rec.Waypoint != "" {
		line += fmt.Sprintf(" | %s", rec.Waypoint)
		if rec.Engagement != nil {
			line += fmt.Sprintf(" cleared by %s (power %g, %.2f min)",
				strings.Join(rec.Engagement.Selected, ", "), rec.Engagement.TotalPower, rec.Engagement.Duration)
		}
	}
	line += fmt.Sprintf(" | total %d | %s\n", int(math.Round(rec.Total)), rec.Status)
	return line
}

func formatHistory(history *service.HistoryResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Replay History (Page %d of %d, %d total steps):\n\n",
		history.Page, history.TotalPages, history.TotalSteps))

	if len(history.Steps) == 0 {
		sb.WriteString("No steps recorded yet.\n")
		return sb.String()
	}

	for _, rec := range history.Steps {
		sb.WriteString(formatStep(rec))
	}

	sb.WriteString("\n")
	if history.HasPrevious {
		sb.WriteString(fmt.Sprintf("← Previous page: %d  ", history.Page-1))
	}
	if history.HasNext {
		sb.WriteString(fmt.Sprintf("Next page: %d →", history.Page+1))
	}
	return sb.String()
}

func formatCellInfo(info *service.CellInfo) string {
	var sb strings.Builder
	cell := info.Cell
	sb.WriteString(fmt.Sprintf("Cell %s: %s '%s'\n", cell.Point, cell.Terrain, info.Symbol))
	if cell.Passable() {
		sb.WriteString(fmt.Sprintf("Cost: %g min\n", cell.Minutes))
	} else {
		sb.WriteString("Impassable\n")
	}
	switch {
	case cell.Start:
		sb.WriteString("Start cell\n")
	case cell.End:
		sb.WriteString("End cell\n")
	case cell.IsWaypoint():
		sb.WriteString(fmt.Sprintf("House %s, difficulty %g\n", cell.Waypoint, cell.Difficulty))
	}
	if info.OnRoute {
		sb.WriteString("On the current route\n")
	}

	sb.WriteString("\nSurroundings:\n")
	for _, sc := range info.Surroundings {
		sb.WriteString(fmt.Sprintf("  (%d,%d) %s '%s'\n", sc.X, sc.Y, sc.Terrain, sc.Symbol))
	}
	return sb.String()
}
