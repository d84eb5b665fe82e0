// Package mcp exposes the route simulator as Model Context Protocol tools.
//
// The server wraps a service.GameService in-process and is served over
// stdio, so an agent drives sessions directly without a network hop.
//
// Tools:
//   - create_session, get_session, list_sessions, list_configs
//   - session_state: grid rendering with status, houses and roster
//   - compute_route: plan and replay, instantly or in the background
//   - step, await_replay, reset
//   - toggle_terrain, set_actor_power, set_waypoint_difficulty
//   - replay_history: paginated step records
//   - describe_cell: one cell and its eight neighbors
//   - instructions: rules and grid legend
//
// Usage:
//
//	srv := mcp.NewServer(gameService)
//	if err := srv.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
