// Package session provides session management for the Sanctuary route simulator.
//
// The session package implements:
//   - Thread-safe in-memory session storage and retrieval
//   - Unique session ID generation
//   - One replay ticker per session, stopped on delete and expiry
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own engine.Simulation and engine.Replayer,
// plus metadata like creation time and last access time.
//
// Session Identifiers:
//
// Sessions use 4-character hexadecimal IDs for easy reference. Lookups are
// case-insensitive and generation retries on collision.
//
// Usage:
//
//	manager := session.NewManager(session.WithTickInterval(20 * time.Millisecond))
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Nothing is persisted; a process restart starts with no sessions.
package session
