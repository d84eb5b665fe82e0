package engine

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Engine provides the main interface for simulation operations
type Engine interface {
	// Driver
	ComputeRoute() (Route, error)
	Step() (StepRecord, error)
	Run() error
	Reset()

	// Edits
	ToggleTerrain(p Point) (Terrain, error)
	SetActorPower(name string, value float64) error
	SetWaypointDifficulty(name string, value float64) error

	// Observation
	Status() Status
	Snapshot() *State
	History() []StepRecord
	Failure() error
	TotalMinutes() float64
}

// Simulation owns one session's grid, roster, waypoints, route and cost.
// It is safe for concurrent use; the replay ticker and edits serialize on
// an internal mutex.
type Simulation struct {
	mu sync.Mutex

	name      string
	grid      *Grid
	start     Point
	end       Point
	actors    []Actor
	waypoints []Waypoint

	route   Route
	cursor  int
	visited map[string]bool
	total   float64
	status  Status
	failure error
	history []StepRecord

	initial initialState
}

type initialState struct {
	grid      *Grid
	actors    []Actor
	waypoints []Waypoint
}

var _ Engine = (*Simulation)(nil)

// NewSimulationWithGrid builds a simulation from an already shaped grid.
// Waypoints are visited in slice order. The grid is copied and the start, end
// and waypoint flags are written onto the copy.
func NewSimulationWithGrid(name string, grid *Grid, start, end Point, waypoints []Waypoint, actors []Actor) (*Simulation, error) {
	if grid == nil {
		return nil, fmt.Errorf("grid cannot be nil")
	}
	if start == end {
		return nil, fmt.Errorf("start and end must differ, both at %s", start)
	}
	g := grid.Clone()
	if err := markEndpoint(g, start, true); err != nil {
		return nil, err
	}
	if err := markEndpoint(g, end, false); err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(waypoints))
	for _, wp := range waypoints {
		if wp.Name == "" {
			return nil, fmt.Errorf("waypoint at %s has no name", wp.Position)
		}
		if names[wp.Name] {
			return nil, fmt.Errorf("duplicate waypoint name %q", wp.Name)
		}
		names[wp.Name] = true
		if err := validateAmount("difficulty", wp.Difficulty); err != nil {
			return nil, fmt.Errorf("waypoint %s: %w", wp.Name, err)
		}
		c := g.at(wp.Position)
		if c == nil {
			return nil, fmt.Errorf("waypoint %s: %w: %s", wp.Name, ErrOutOfBounds, wp.Position)
		}
		if c.Start || c.End || c.IsWaypoint() {
			return nil, fmt.Errorf("waypoint %s: %s is already taken", wp.Name, wp.Position)
		}
		if !c.Passable() {
			return nil, fmt.Errorf("waypoint %s: %s is a wall", wp.Name, wp.Position)
		}
		c.Waypoint = wp.Name
		c.Difficulty = wp.Difficulty
	}

	actorNames := make(map[string]bool, len(actors))
	for _, a := range actors {
		if a.Name == "" {
			return nil, fmt.Errorf("actor has no name")
		}
		if actorNames[a.Name] {
			return nil, fmt.Errorf("duplicate actor name %q", a.Name)
		}
		actorNames[a.Name] = true
		if err := validateAmount("power", a.Power); err != nil {
			return nil, fmt.Errorf("actor %s: %w", a.Name, err)
		}
		if a.Capacity < 0 {
			return nil, fmt.Errorf("actor %s: capacity cannot be negative, got %d", a.Name, a.Capacity)
		}
	}

	sim := &Simulation{
		name:  name,
		start: start,
		end:   end,
		initial: initialState{
			grid:      g,
			actors:    append([]Actor(nil), actors...),
			waypoints: append([]Waypoint(nil), waypoints...),
		},
	}
	sim.restore()
	return sim, nil
}

func markEndpoint(g *Grid, p Point, isStart bool) error {
	label := "end"
	if isStart {
		label = "start"
	}
	c := g.at(p)
	if c == nil {
		return fmt.Errorf("%s: %w: %s", label, ErrOutOfBounds, p)
	}
	if !c.Passable() {
		return fmt.Errorf("%s: %s is a wall", label, p)
	}
	c.Start = c.Start || isStart
	c.End = c.End || !isStart
	return nil
}

// restore copies the construction snapshot into the live state. Caller holds
// mu or has exclusive access.
func (s *Simulation) restore() {
	s.grid = s.initial.grid.Clone()
	s.actors = append([]Actor(nil), s.initial.actors...)
	s.waypoints = append([]Waypoint(nil), s.initial.waypoints...)
	s.route = nil
	s.cursor = 0
	s.visited = make(map[string]bool)
	s.total = 0
	s.status = StatusIdle
	s.failure = nil
	s.history = nil
}

// Name returns the scenario name
func (s *Simulation) Name() string { return s.name }

// ComputeRoute plans start -> waypoints -> end and, on success, rewinds the
// replay to the first route point. On failure the previous route, cost and
// marks are left as they were and the status becomes failed.
func (s *Simulation) ComputeRoute() (Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = StatusPlanning
	stops := make([]Point, len(s.waypoints))
	for i, wp := range s.waypoints {
		stops[i] = wp.Position
	}

	route, err := PlanRoute(s.grid, s.start, stops, s.end)
	if err != nil {
		s.status = StatusFailed
		s.failure = err
		return nil, err
	}

	s.route = route
	s.cursor = 0
	s.total = 0
	s.visited = make(map[string]bool)
	s.failure = nil
	s.history = nil
	s.grid.ClearPath()
	s.grid.MarkPath(route[0])
	s.status = StatusReplaying
	if len(route) == 1 {
		s.status = StatusCompleted
	}
	return append(Route(nil), route...), nil
}

// Step advances the replay cursor by one route point
func (s *Simulation) Step() (StepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusReplaying {
		return StepRecord{Status: s.status}, ErrNotReplaying
	}

	s.cursor++
	p := s.route[s.cursor]
	rec := StepRecord{Index: s.cursor, Position: p}
	c := s.grid.at(p)

	// Live grid read: a wall raised after planning stops the run here
	if !c.Passable() {
		return s.fail(rec, &BlockedRouteError{Position: p})
	}

	s.total += c.Minutes
	rec.Minutes = c.Minutes
	s.grid.MarkPath(p)

	if wp, ok := s.waypointAt(p); ok && !s.visited[wp.Name] {
		rec.Waypoint = wp.Name
		alloc, err := Allocate(wp.Difficulty, s.actors)
		if err != nil {
			return s.fail(rec, &NoEligibleActorsError{Waypoint: wp.Name, Position: p})
		}
		s.visited[wp.Name] = true
		s.total += alloc.Duration
		rec.Engagement = &alloc
	}

	if s.cursor == len(s.route)-1 {
		s.status = StatusCompleted
	}
	rec.Total = s.total
	rec.Status = s.status
	s.history = append(s.history, rec)
	return rec, nil
}

func (s *Simulation) fail(rec StepRecord, err error) (StepRecord, error) {
	s.status = StatusFailed
	s.failure = err
	rec.Total = s.total
	rec.Status = s.status
	s.history = append(s.history, rec)
	return rec, err
}

func (s *Simulation) waypointAt(p Point) (Waypoint, bool) {
	for _, wp := range s.waypoints {
		if wp.Position == p {
			return wp, true
		}
	}
	return Waypoint{}, false
}

// Run steps until the replay completes or fails. A simulation that was never
// planned returns ErrNotReplaying.
func (s *Simulation) Run() error {
	for {
		_, err := s.Step()
		if err == nil {
			continue
		}
		if errors.Is(err, ErrNotReplaying) && s.Status().Terminal() {
			return s.Failure()
		}
		return err
	}
}

// Reset restores the construction snapshot and returns to idle
func (s *Simulation) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore()
}

// ToggleTerrain cycles an ordinary cell through plain, rough and wall.
// Start, end and waypoint cells are left alone with ErrProtectedCell.
func (s *Simulation) ToggleTerrain(p Point) (Terrain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Toggle(p)
}

// SetActorPower replaces the power of the named actor
func (s *Simulation) SetActorPower(name string, value float64) error {
	if err := validateAmount("power", value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.actors {
		if s.actors[i].Name == name {
			s.actors[i].Power = value
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownActor, name)
}

// SetWaypointDifficulty replaces the difficulty of the named waypoint
func (s *Simulation) SetWaypointDifficulty(name string, value float64) error {
	if err := validateAmount("difficulty", value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.waypoints {
		if s.waypoints[i].Name == name {
			s.waypoints[i].Difficulty = value
			if c := s.grid.at(s.waypoints[i].Position); c != nil {
				c.Difficulty = value
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownWaypoint, name)
}

func validateAmount(field string, value float64) error {
	switch {
	case math.IsNaN(value):
		return &InvalidEditError{Field: field, Value: value, Reason: "not a number"}
	case math.IsInf(value, 0):
		return &InvalidEditError{Field: field, Value: value, Reason: "must be finite"}
	case value < 0:
		return &InvalidEditError{Field: field, Value: value, Reason: "cannot be negative"}
	}
	return nil
}

// Status returns the driver state
func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Failure returns the error that moved the driver to failed, if any
func (s *Simulation) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// TotalMinutes returns the accumulated cost of the current run
func (s *Simulation) TotalMinutes() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Route returns a copy of the current route
func (s *Simulation) Route() Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(Route(nil), s.route...)
}

// Actors returns a copy of the roster
func (s *Simulation) Actors() []Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Actor(nil), s.actors...)
}

// Waypoints returns a copy of the waypoints in visiting order
func (s *Simulation) Waypoints() []Waypoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Waypoint(nil), s.waypoints...)
}

// Grid returns a copy of the live grid
func (s *Simulation) Grid() *Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone()
}

// History returns the step records of the current run
func (s *Simulation) History() []StepRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StepRecord(nil), s.history...)
}

// Snapshot returns the observable state
func (s *Simulation) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &State{
		Name:           s.name,
		Status:         s.status,
		Width:          s.grid.Width(),
		Height:         s.grid.Height(),
		Grid:           s.grid.Rows(),
		Start:          s.start,
		End:            s.end,
		Actors:         append([]Actor(nil), s.actors...),
		Waypoints:      append([]Waypoint(nil), s.waypoints...),
		Route:          append([]Point(nil), s.route...),
		Cursor:         s.cursor,
		TotalMinutes:   s.total,
		RoundedMinutes: int(math.Round(s.total)),
	}
	if len(s.route) > 0 {
		p := s.route[s.cursor]
		state.Position = &p
	}
	for _, wp := range s.waypoints {
		if s.visited[wp.Name] {
			state.Visited = append(state.Visited, wp.Name)
		}
	}
	if s.failure != nil {
		state.Failure = s.failure.Error()
	}
	return state
}
