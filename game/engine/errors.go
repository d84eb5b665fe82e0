package engine

import (
	"errors"
	"fmt"
)

var (
	ErrUnreachableSegment = errors.New("unreachable segment")
	ErrNoEligibleActors   = errors.New("no eligible actors")
	ErrInvalidEdit        = errors.New("invalid edit")
	ErrProtectedCell      = errors.New("cell is protected")
	ErrOutOfBounds        = errors.New("position out of bounds")
	ErrUnknownActor       = errors.New("unknown actor")
	ErrUnknownWaypoint    = errors.New("unknown waypoint")
	ErrNotReplaying       = errors.New("simulation is not replaying")
	ErrBlockedRoute       = errors.New("route blocked")
)

// UnreachableSegmentError names the two consecutive required points that
// could not be connected.
type UnreachableSegmentError struct {
	Segment int // zero-based segment index
	From    Point
	To      Point
}

func (e *UnreachableSegmentError) Error() string {
	return fmt.Sprintf("impossible path: no route from %s to %s (segment %d)", e.From, e.To, e.Segment+1)
}

func (e *UnreachableSegmentError) Unwrap() error { return ErrUnreachableSegment }

// NoEligibleActorsError names the waypoint at which the roster ran dry
type NoEligibleActorsError struct {
	Waypoint string
	Position Point
}

func (e *NoEligibleActorsError) Error() string {
	return fmt.Sprintf("no actors with remaining capacity before waypoint %s at %s", e.Waypoint, e.Position)
}

func (e *NoEligibleActorsError) Unwrap() error { return ErrNoEligibleActors }

// InvalidEditError rejects a numeric edit that would corrupt stored state
type InvalidEditError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidEditError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidEditError) Unwrap() error { return ErrInvalidEdit }

// BlockedRouteError reports a route cell that became impassable during replay
type BlockedRouteError struct {
	Position Point
}

func (e *BlockedRouteError) Error() string {
	return fmt.Sprintf("route blocked at %s", e.Position)
}

func (e *BlockedRouteError) Unwrap() error { return ErrBlockedRoute }
