// Package engine provides the core route planning and resource simulation
// logic for the Sanctuary run.
//
// The engine package implements:
//   - A weighted grid model with a distinct impassable terrain state
//   - A* pathfinding between two points with a Manhattan heuristic
//   - Route planning through an ordered list of mandatory waypoints
//   - Actor allocation for clearing waypoints with finite capacity
//   - A step-driven simulation state machine with full reset
//
// Core Types:
//
// Grid owns the cells and their traversal costs. Simulation is the explicitly
// owned session context: it holds the grid, the actor roster, the waypoints,
// the computed route and the accumulated cost. Replayer drives
// Simulation.Step from a ticker so the state machine itself stays synchronous.
//
// Usage:
//
//	cfg, err := engine.LoadScenarioConfig("configs/sanctuary.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sim, err := engine.NewSimulation(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if _, err := sim.ComputeRoute(); err != nil {
//		log.Fatal(err)
//	}
//	err = sim.Run()
//	state := sim.Snapshot()
//
// Rules:
//
// Entering a cell costs that cell's minutes. The first time the route reaches
// a waypoint, the strongest actors with remaining capacity engage it; the
// engagement adds difficulty divided by their combined power to the total and
// costs each engaged actor one unit of capacity. The run fails when a segment
// cannot be connected or when nobody is left to engage a waypoint.
package engine
