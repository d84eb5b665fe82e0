// Command analyze prints quick, human-readable heuristics about scenario
// files. It summarizes dimensions and terrain, compares the saints needed by
// every house against the roster's total capacity, lists unreachable route
// segments and dry-runs the scenario to report its outcome.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/sanctuary/game/config"
	"github.com/wricardo/mcp-training/sanctuary/game/engine"
)

// Analysis holds the figures reported for one scenario
type Analysis struct {
	Name          string
	Width, Height int
	Plain, Rough  int
	Walls         int
	Waypoints     int

	// Demand is the selection count of every house with the full roster
	// eligible; Capacity is the roster's summed capacity.
	Demand   int
	Capacity int

	// LowerBound sums the Manhattan distances between consecutive stops
	LowerBound  int
	Unreachable []string

	RouteLength    int
	PlannedMinutes float64
	Outcome        engine.Status
	TotalMinutes   int
	Failure        string
}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "summarize scenario files",
		ArgsUsage: "[file]...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory scanned when no files are given",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				var err error
				if files, err = scenarioFiles(cmd.String("config-dir")); err != nil {
					return err
				}
			}
			for _, file := range files {
				fmt.Fprintf(os.Stdout, "\n=== Analyzing %s ===\n", file)
				if err := analyzeFile(os.Stdout, file); err != nil {
					fmt.Fprintf(os.Stdout, "Error: %v\n", err)
				}
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// scenarioFiles lists every scenario file in dir
func scenarioFiles(dir string) ([]string, error) {
	var files []string
	for _, ext := range config.Extensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func analyzeFile(out io.Writer, path string) error {
	scenario, err := config.ValidateFile(path)
	if err != nil {
		return err
	}
	a, err := analyze(scenario)
	if err != nil {
		return err
	}
	report(out, a)
	return nil
}

func analyze(scenario *engine.ScenarioConfig) (*Analysis, error) {
	sim, err := engine.NewSimulation(scenario)
	if err != nil {
		return nil, err
	}

	state := sim.Snapshot()
	a := &Analysis{
		Name:      scenario.Name,
		Width:     state.Width,
		Height:    state.Height,
		Plain:     engine.CountTerrain(state.Grid, engine.Plain),
		Rough:     engine.CountTerrain(state.Grid, engine.Rough),
		Walls:     engine.CountTerrain(state.Grid, engine.Wall),
		Waypoints: len(state.Waypoints),
		Capacity:  engine.RemainingCapacity(state.Actors),
	}
	for _, wp := range state.Waypoints {
		a.Demand += engine.SelectionCount(wp.Difficulty, len(state.Actors))
	}

	// Check every segment so all broken legs are listed, not just the first
	grid := sim.Grid()
	stops := []engine.Point{state.Start}
	for _, wp := range state.Waypoints {
		stops = append(stops, wp.Position)
	}
	stops = append(stops, state.End)
	for i := 0; i < len(stops)-1; i++ {
		a.LowerBound += engine.ManhattanDistance(stops[i], stops[i+1])
		if _, ok := engine.FindPath(grid, stops[i], stops[i+1]); !ok {
			a.Unreachable = append(a.Unreachable, fmt.Sprintf("%s -> %s", stops[i], stops[i+1]))
		}
	}

	route, err := sim.ComputeRoute()
	if err != nil {
		a.Outcome = sim.Status()
		a.Failure = err.Error()
		return a, nil
	}
	a.RouteLength = len(route)
	a.PlannedMinutes = route.Cost(sim.Grid())

	if err := sim.Run(); err != nil {
		a.Failure = err.Error()
	}
	final := sim.Snapshot()
	a.Outcome = final.Status
	a.TotalMinutes = final.RoundedMinutes
	return a, nil
}

func report(out io.Writer, a *Analysis) {
	fmt.Fprintf(out, "Name: %s\n", a.Name)
	fmt.Fprintf(out, "Grid Size: %d x %d\n", a.Width, a.Height)
	fmt.Fprintf(out, "Terrain: %d plain, %d rough, %d walls\n", a.Plain, a.Rough, a.Walls)
	fmt.Fprintf(out, "Houses: %d\n", a.Waypoints)

	if a.Demand > a.Capacity {
		fmt.Fprintf(out, "⚠️  WARNING: houses ask for %d engagements but the roster only has %d capacity\n", a.Demand, a.Capacity)
	} else {
		fmt.Fprintf(out, "✅ Roster capacity %d covers the %d engagements asked for\n", a.Capacity, a.Demand)
	}

	if len(a.Unreachable) > 0 {
		fmt.Fprintf(out, "⚠️  CRITICAL: %d route segments are unreachable!\n", len(a.Unreachable))
		for _, seg := range a.Unreachable {
			fmt.Fprintf(out, "   Unreachable: %s\n", seg)
		}
	} else {
		fmt.Fprintf(out, "✅ Every segment is reachable\n")
	}

	if a.RouteLength > 0 {
		fmt.Fprintf(out, "Route: %d cells, %g terrain minutes (Manhattan lower bound %d)\n",
			a.RouteLength, a.PlannedMinutes, a.LowerBound)
	}
	fmt.Fprintf(out, "Outcome: %s", a.Outcome)
	if a.Outcome == engine.StatusCompleted {
		fmt.Fprintf(out, " in %d minutes", a.TotalMinutes)
	}
	fmt.Fprintln(out)
	if a.Failure != "" {
		fmt.Fprintf(out, "Failure: %s\n", a.Failure)
	}
}
