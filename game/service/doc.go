// Package service provides the business logic layer for the Sanctuary route simulator.
//
// The service package implements:
//   - Multi-session simulation management
//   - Route computation with instant or background replay
//   - Manual stepping, terrain toggles and roster edits
//   - Step history pagination
//   - Scenario configuration listing and loading
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages scenario configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the presentation adapters (CLI and MCP) and
// the engine, providing session isolation and orchestration. Each session
// owns its own engine.Simulation and engine.Replayer. Starting a new route
// computation or a reset always stops the session's running replay first.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	svc := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := svc.CreateSession(ctx, "sanctuary")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := svc.ComputeRoute(ctx, info.ID, service.RunOptions{Instant: true})
package service
