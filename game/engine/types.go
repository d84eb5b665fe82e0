package engine

import (
	"fmt"
	"time"
)

// Terrain is the traversal class of a cell. Wall is the only impassable class
// and never carries a cost.
type Terrain int

const (
	Plain Terrain = iota
	Rough
	Wall
)

const (
	// Allocation scaling: round(difficulty / SelectionScale * SelectionFactor)
	// actors engage a waypoint.
	SelectionScale  = 120.0
	SelectionFactor = 3.0

	DefaultPlainMinutes = 1.0
	DefaultRoughMinutes = 5.0
	DefaultTickInterval = 50 * time.Millisecond

	// Validation constants
	MinGridSize  = 2
	MaxGridSize  = 200
	MaxCapacity  = 1000
	MaxWaypoints = 64
	MaxActors    = 64
)

// String returns the lowercase terrain name
func (t Terrain) String() string {
	switch t {
	case Plain:
		return "plain"
	case Rough:
		return "rough"
	case Wall:
		return "wall"
	default:
		return fmt.Sprintf("terrain(%d)", int(t))
	}
}

// Next returns the terrain that a toggle cycles to
func (t Terrain) Next() Terrain {
	switch t {
	case Plain:
		return Rough
	case Rough:
		return Wall
	default:
		return Plain
	}
}

// MarshalText implements encoding.TextMarshaler
func (t Terrain) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Terrain) UnmarshalText(text []byte) error {
	parsed, err := ParseTerrain(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTerrain converts a terrain name into a Terrain
func ParseTerrain(name string) (Terrain, error) {
	switch name {
	case "plain":
		return Plain, nil
	case "rough":
		return Rough, nil
	case "wall":
		return Wall, nil
	}
	return Plain, fmt.Errorf("unknown terrain %q", name)
}

// TerrainCosts maps passable terrain classes to minutes
type TerrainCosts struct {
	Plain float64 `json:"plain" yaml:"plain"`
	Rough float64 `json:"rough" yaml:"rough"`
}

// DefaultTerrainCosts returns the cheap and moderate levels used when a
// scenario does not override them.
func DefaultTerrainCosts() TerrainCosts {
	return TerrainCosts{Plain: DefaultPlainMinutes, Rough: DefaultRoughMinutes}
}

// Minutes returns the cost of a terrain class; false for Wall
func (tc TerrainCosts) Minutes(t Terrain) (float64, bool) {
	switch t {
	case Plain:
		return tc.Plain, true
	case Rough:
		return tc.Rough, true
	}
	return 0, false
}

// Point represents x,y coordinates
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Cell represents a single grid cell
type Cell struct {
	Point
	Terrain    Terrain `json:"terrain"`
	Minutes    float64 `json:"minutes"`
	Start      bool    `json:"start,omitempty"`
	End        bool    `json:"end,omitempty"`
	Waypoint   string  `json:"waypoint,omitempty"` // Waypoint name, empty for ordinary cells
	Difficulty float64 `json:"difficulty,omitempty"`
	OnPath     bool    `json:"on_path,omitempty"`
}

// Passable reports whether the cell can be entered
func (c Cell) Passable() bool {
	return c.Terrain != Wall
}

// IsWaypoint reports whether a waypoint is bound to the cell
func (c Cell) IsWaypoint() bool {
	return c.Waypoint != ""
}

// Protected reports whether terrain edits are refused on the cell
func (c Cell) Protected() bool {
	return c.Start || c.End || c.IsWaypoint()
}

// Waypoint is a mandatory stop that must be cleared by actors
type Waypoint struct {
	Name       string  `json:"name"`
	Position   Point   `json:"position"`
	Difficulty float64 `json:"difficulty"`
}

// Actor is a roster member that engages waypoints
type Actor struct {
	Name     string  `json:"name"`
	Power    float64 `json:"power"`
	Capacity int     `json:"capacity"`
}

// Status is the simulation driver state
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPlanning  Status = "planning"
	StatusReplaying Status = "replaying"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further ticks can happen without a new plan
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Allocation is the outcome of clearing one waypoint
type Allocation struct {
	Selected   []string `json:"selected"`
	TotalPower float64  `json:"total_power"`
	Duration   float64  `json:"duration"`
}

// StepRecord describes one replay tick
type StepRecord struct {
	Index      int         `json:"index"`
	Position   Point       `json:"position"`
	Minutes    float64     `json:"minutes"`
	Waypoint   string      `json:"waypoint,omitempty"`
	Engagement *Allocation `json:"engagement,omitempty"`
	Total      float64     `json:"total"`
	Status     Status      `json:"status"`
}

// State is the observable snapshot handed to presentation layers
type State struct {
	Name           string     `json:"name"`
	Status         Status     `json:"status"`
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	Grid           [][]Cell   `json:"grid"`
	Start          Point      `json:"start"`
	End            Point      `json:"end"`
	Actors         []Actor    `json:"actors"`
	Waypoints      []Waypoint `json:"waypoints"`
	Route          []Point    `json:"route,omitempty"`
	Cursor         int        `json:"cursor"`
	Position       *Point     `json:"position,omitempty"`
	Visited        []string   `json:"visited,omitempty"`
	TotalMinutes   float64    `json:"total_minutes"`
	RoundedMinutes int        `json:"rounded_minutes"`
	Failure        string     `json:"failure,omitempty"`

	// Decision aids filled in by the service layer
	NextWaypoint string `json:"next_waypoint,omitempty"`
	RosterRisk   string `json:"roster_risk,omitempty"`
}
