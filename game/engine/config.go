package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Layout legend
const (
	LayoutPlain    = '.'
	LayoutRough    = '~'
	LayoutWall     = '#'
	LayoutStart    = 'S'
	LayoutEnd      = 'E'
	LayoutWaypoint = 'H'
)

// ScenarioConfig is the static session configuration read from JSON or YAML
type ScenarioConfig struct {
	Name           string           `json:"name" yaml:"name"`
	Description    string           `json:"description" yaml:"description"`
	Layout         []string         `json:"layout" yaml:"layout"`
	TerrainCosts   *TerrainCostsConfig `json:"terrain_costs,omitempty" yaml:"terrain_costs,omitempty"`
	Waypoints      []WaypointConfig `json:"waypoints" yaml:"waypoints"`
	Actors         []ActorConfig    `json:"actors" yaml:"actors"`
	TickIntervalMs int              `json:"tick_interval_ms,omitempty" yaml:"tick_interval_ms,omitempty"`
}

// TerrainCostsConfig overrides terrain minutes; an omitted level keeps its
// default. Set levels must be positive.
type TerrainCostsConfig struct {
	Plain *float64 `json:"plain,omitempty" yaml:"plain,omitempty"`
	Rough *float64 `json:"rough,omitempty" yaml:"rough,omitempty"`
}

// WaypointConfig places a named waypoint on an 'H' layout cell
type WaypointConfig struct {
	Name       string  `json:"name" yaml:"name"`
	X          int     `json:"x" yaml:"x"`
	Y          int     `json:"y" yaml:"y"`
	Difficulty float64 `json:"difficulty" yaml:"difficulty"`
}

// ActorConfig describes one roster member
type ActorConfig struct {
	Name     string  `json:"name" yaml:"name"`
	Power    float64 `json:"power" yaml:"power"`
	Capacity int     `json:"capacity" yaml:"capacity"`
}

// Costs returns the configured terrain levels, defaults filled in
func (c *ScenarioConfig) Costs() TerrainCosts {
	costs := DefaultTerrainCosts()
	if c.TerrainCosts != nil {
		if c.TerrainCosts.Plain != nil {
			costs.Plain = *c.TerrainCosts.Plain
		}
		if c.TerrainCosts.Rough != nil {
			costs.Rough = *c.TerrainCosts.Rough
		}
	}
	return costs
}

// TickInterval returns the replay cadence
func (c *ScenarioConfig) TickInterval() time.Duration {
	if c.TickIntervalMs <= 0 {
		return DefaultTickInterval
	}
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// ValidateScenarioConfig validates a scenario for structure and consistency
func ValidateScenarioConfig(config *ScenarioConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if strings.TrimSpace(config.Name) == "" {
		return fmt.Errorf("config validation: name is required")
	}

	// Validate layout
	height := len(config.Layout)
	if height < MinGridSize || height > MaxGridSize {
		return fmt.Errorf("config validation: layout must have between %d and %d rows, got %d", MinGridSize, MaxGridSize, height)
	}
	width := len(config.Layout[0])
	if width < MinGridSize || width > MaxGridSize {
		return fmt.Errorf("config validation: layout rows must have between %d and %d columns, got %d", MinGridSize, MaxGridSize, width)
	}

	starts, ends := 0, 0
	houses := make(map[Point]bool)
	for y, row := range config.Layout {
		if len(row) != width {
			return fmt.Errorf("config validation: row %d must have %d characters, got %d", y+1, width, len(row))
		}
		for x := 0; x < len(row); x++ {
			switch row[x] {
			case LayoutPlain, LayoutRough, LayoutWall:
			case LayoutStart:
				starts++
			case LayoutEnd:
				ends++
			case LayoutWaypoint:
				houses[Point{X: x, Y: y}] = true
			default:
				return fmt.Errorf("config validation: invalid character '%c' at row %d, col %d", row[x], y+1, x+1)
			}
		}
	}
	if starts != 1 {
		return fmt.Errorf("config validation: layout must contain exactly one start (S), got %d", starts)
	}
	if ends != 1 {
		return fmt.Errorf("config validation: layout must contain exactly one end (E), got %d", ends)
	}

	// Validate terrain costs
	if tc := config.TerrainCosts; tc != nil {
		levels := []struct {
			name  string
			value *float64
		}{{"plain", tc.Plain}, {"rough", tc.Rough}}
		for _, level := range levels {
			if v := level.value; v != nil && (!finiteNonNegative(*v) || *v == 0) {
				return fmt.Errorf("config validation: terrain_costs.%s must be a positive finite number, got %v", level.name, *v)
			}
		}
	}
	if config.TickIntervalMs < 0 {
		return fmt.Errorf("config validation: tick_interval_ms cannot be negative, got %d", config.TickIntervalMs)
	}

	// Validate waypoints against the 'H' cells
	if len(config.Waypoints) > MaxWaypoints {
		return fmt.Errorf("config validation: at most %d waypoints allowed, got %d", MaxWaypoints, len(config.Waypoints))
	}
	names := make(map[string]bool)
	placed := make(map[Point]bool)
	for i, wp := range config.Waypoints {
		if strings.TrimSpace(wp.Name) == "" {
			return fmt.Errorf("config validation: waypoints[%d].name is required", i)
		}
		if names[wp.Name] {
			return fmt.Errorf("config validation: duplicate waypoint name %q", wp.Name)
		}
		names[wp.Name] = true
		p := Point{X: wp.X, Y: wp.Y}
		if !houses[p] {
			return fmt.Errorf("config validation: waypoint %s at %s is not on an 'H' layout cell", wp.Name, p)
		}
		if placed[p] {
			return fmt.Errorf("config validation: waypoint %s shares %s with another waypoint", wp.Name, p)
		}
		placed[p] = true
		if !finiteNonNegative(wp.Difficulty) {
			return fmt.Errorf("config validation: waypoint %s difficulty must be finite and non-negative, got %v", wp.Name, wp.Difficulty)
		}
	}
	for p := range houses {
		if !placed[p] {
			return fmt.Errorf("config validation: 'H' cell at %s has no waypoint entry", p)
		}
	}

	// Validate actors
	if len(config.Actors) == 0 {
		return fmt.Errorf("config validation: at least one actor is required")
	}
	if len(config.Actors) > MaxActors {
		return fmt.Errorf("config validation: at most %d actors allowed, got %d", MaxActors, len(config.Actors))
	}
	actorNames := make(map[string]bool)
	for i, a := range config.Actors {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("config validation: actors[%d].name is required", i)
		}
		if actorNames[a.Name] {
			return fmt.Errorf("config validation: duplicate actor name %q", a.Name)
		}
		actorNames[a.Name] = true
		if !finiteNonNegative(a.Power) {
			return fmt.Errorf("config validation: actor %s power must be finite and non-negative, got %v", a.Name, a.Power)
		}
		if a.Capacity < 0 || a.Capacity > MaxCapacity {
			return fmt.Errorf("config validation: actor %s capacity must be between 0 and %d, got %d", a.Name, MaxCapacity, a.Capacity)
		}
	}

	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// LoadScenarioConfig loads a scenario from a .json, .yaml or .yml file
func LoadScenarioConfig(filename string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseScenarioConfig(data, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateScenarioConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseScenarioConfig decodes a scenario; ext selects YAML for ".yaml"/".yml"
func ParseScenarioConfig(data []byte, ext string) (*ScenarioConfig, error) {
	var config ScenarioConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// NewSimulation creates a simulation from a validated scenario configuration
func NewSimulation(config *ScenarioConfig) (*Simulation, error) {
	if err := ValidateScenarioConfig(config); err != nil {
		return nil, err
	}

	height := len(config.Layout)
	width := len(config.Layout[0])
	grid := NewGrid(width, height, config.Costs())

	var start, end Point
	for y, row := range config.Layout {
		for x := 0; x < len(row); x++ {
			p := Point{X: x, Y: y}
			var err error
			switch row[x] {
			case LayoutRough:
				err = grid.SetTerrain(p, Rough)
			case LayoutWall:
				err = grid.SetTerrain(p, Wall)
			case LayoutStart:
				start = p
			case LayoutEnd:
				end = p
			}
			if err != nil {
				return nil, fmt.Errorf("layout %s: %w", p, err)
			}
		}
	}

	waypoints := make([]Waypoint, 0, len(config.Waypoints))
	for _, wp := range config.Waypoints {
		waypoints = append(waypoints, Waypoint{
			Name:       wp.Name,
			Position:   Point{X: wp.X, Y: wp.Y},
			Difficulty: wp.Difficulty,
		})
	}

	actors := make([]Actor, 0, len(config.Actors))
	for _, a := range config.Actors {
		actors = append(actors, Actor{Name: a.Name, Power: a.Power, Capacity: a.Capacity})
	}

	return NewSimulationWithGrid(config.Name, grid, start, end, waypoints, actors)
}

// MinimalScenarioConfig returns a small valid scenario used when no scenario
// files are available.
func MinimalScenarioConfig() *ScenarioConfig {
	return &ScenarioConfig{
		Name:        "default",
		Description: "Default minimal scenario",
		Layout: []string{
			"S..~.",
			".#.#.",
			".H.H.",
			".#~#.",
			"....E",
		},
		Waypoints: []WaypointConfig{
			{Name: "first", X: 1, Y: 2, Difficulty: 40},
			{Name: "second", X: 3, Y: 2, Difficulty: 80},
		},
		Actors: []ActorConfig{
			{Name: "alpha", Power: 1.5, Capacity: 2},
			{Name: "beta", Power: 1.2, Capacity: 2},
			{Name: "gamma", Power: 1.0, Capacity: 2},
		},
	}
}
