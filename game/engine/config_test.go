package engine

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScenario() *ScenarioConfig {
	return &ScenarioConfig{
		Name:        "Engine Test Scenario",
		Description: "Scenario for engine tests",
		Layout: []string{
			"S...",
			".#H.",
			".~..",
			"..HE",
		},
		Waypoints: []WaypointConfig{
			{Name: "aries", X: 2, Y: 1, Difficulty: 50},
			{Name: "taurus", X: 2, Y: 3, Difficulty: 55},
		},
		Actors: []ActorConfig{
			{Name: "seiya", Power: 1.5, Capacity: 5},
			{Name: "shiryu", Power: 1.4, Capacity: 5},
		},
	}
}

func TestValidateScenarioConfig(t *testing.T) {
	require.NoError(t, ValidateScenarioConfig(validScenario()))
	require.NoError(t, ValidateScenarioConfig(MinimalScenarioConfig()))

	tests := []struct {
		name    string
		mutate  func(c *ScenarioConfig)
		wantErr string
	}{
		{"missing name", func(c *ScenarioConfig) { c.Name = " " }, "name is required"},
		{"too few rows", func(c *ScenarioConfig) { c.Layout = c.Layout[:1] }, "rows"},
		{"ragged row", func(c *ScenarioConfig) { c.Layout[2] = ".~." }, "row 3"},
		{"bad character", func(c *ScenarioConfig) { c.Layout[2] = ".~X." }, "invalid character 'X'"},
		{"two starts", func(c *ScenarioConfig) { c.Layout[2] = "S~.." }, "exactly one start"},
		{"no end", func(c *ScenarioConfig) { c.Layout[3] = "..H." }, "exactly one end"},
		{"waypoint off H cell", func(c *ScenarioConfig) { c.Waypoints[0].X = 3 }, "not on an 'H' layout cell"},
		{"H cell without waypoint", func(c *ScenarioConfig) { c.Waypoints = c.Waypoints[:1] }, "no waypoint entry"},
		{"duplicate waypoint", func(c *ScenarioConfig) { c.Waypoints[1].Name = "aries" }, "duplicate waypoint"},
		{"negative difficulty", func(c *ScenarioConfig) { c.Waypoints[0].Difficulty = -1 }, "difficulty"},
		{"no actors", func(c *ScenarioConfig) { c.Actors = nil }, "at least one actor"},
		{"duplicate actor", func(c *ScenarioConfig) { c.Actors[1].Name = "seiya" }, "duplicate actor"},
		{"negative power", func(c *ScenarioConfig) { c.Actors[0].Power = -2 }, "power"},
		{"capacity too large", func(c *ScenarioConfig) { c.Actors[0].Capacity = MaxCapacity + 1 }, "capacity"},
		{"negative tick", func(c *ScenarioConfig) { c.TickIntervalMs = -5 }, "tick_interval_ms"},
		{"negative terrain cost", func(c *ScenarioConfig) { c.TerrainCosts = &TerrainCostsConfig{Plain: minutes(-1)} }, "terrain_costs.plain"},
		{"zero terrain cost", func(c *ScenarioConfig) { c.TerrainCosts = &TerrainCostsConfig{Rough: minutes(0)} }, "terrain_costs.rough"},
		{"infinite terrain cost", func(c *ScenarioConfig) { c.TerrainCosts = &TerrainCostsConfig{Plain: minutes(math.Inf(1))} }, "terrain_costs.plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validScenario()
			tt.mutate(config)
			err := ValidateScenarioConfig(config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.Error(t, ValidateScenarioConfig(nil))
}

func TestNewSimulation_FromScenario(t *testing.T) {
	sim, err := NewSimulation(validScenario())
	require.NoError(t, err)

	state := sim.Snapshot()
	assert.Equal(t, "Engine Test Scenario", state.Name)
	assert.Equal(t, 4, state.Width)
	assert.Equal(t, 4, state.Height)
	assert.Equal(t, Point{0, 0}, state.Start)
	assert.Equal(t, Point{3, 3}, state.End)
	assert.Equal(t, Wall, state.Grid[1][1].Terrain)
	assert.Equal(t, Rough, state.Grid[2][1].Terrain)
	assert.Equal(t, DefaultRoughMinutes, state.Grid[2][1].Minutes)
	assert.Equal(t, "aries", state.Grid[1][2].Waypoint)
	assert.Equal(t, 55.0, state.Grid[3][2].Difficulty)
	assert.Len(t, state.Actors, 2)

	assert.Equal(t, []string{
		"S...",
		".#H.",
		".~..",
		"..HE",
	}, sim.Grid().Render())

	_, err = sim.ComputeRoute()
	require.NoError(t, err)
	require.NoError(t, sim.Run())
	assert.Equal(t, StatusCompleted, sim.Status())
	assert.ElementsMatch(t, []string{"aries", "taurus"}, sim.Snapshot().Visited)
}

func minutes(v float64) *float64 { return &v }

func TestScenarioConfig_CostsAndTick(t *testing.T) {
	config := validScenario()
	assert.Equal(t, DefaultTerrainCosts(), config.Costs())
	assert.Equal(t, DefaultTickInterval, config.TickInterval())

	config.TerrainCosts = &TerrainCostsConfig{Plain: minutes(2)}
	config.TickIntervalMs = 250
	require.NoError(t, ValidateScenarioConfig(config))
	assert.Equal(t, TerrainCosts{Plain: 2, Rough: DefaultRoughMinutes}, config.Costs())

	config.TerrainCosts = &TerrainCostsConfig{Plain: minutes(0.5), Rough: minutes(2)}
	assert.Equal(t, TerrainCosts{Plain: 0.5, Rough: 2}, config.Costs())
	assert.Equal(t, int64(250), config.TickInterval().Milliseconds())
}

func TestLoadScenarioConfig(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "scenario.json")
	jsonData := `{
  "name": "json scenario",
  "layout": ["S.H", "..E"],
  "waypoints": [{"name": "aries", "x": 2, "y": 0, "difficulty": 50}],
  "actors": [{"name": "seiya", "power": 1.5, "capacity": 5}],
  "tick_interval_ms": 20
}`
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonData), 0644))

	yamlPath := filepath.Join(dir, "scenario.yaml")
	yamlData := strings.Join([]string{
		"name: yaml scenario",
		"layout:",
		"  - S~H",
		"  - ..E",
		"terrain_costs:",
		"  plain: 1",
		"  rough: 3",
		"waypoints:",
		"  - {name: aries, x: 2, y: 0, difficulty: 50}",
		"actors:",
		"  - {name: seiya, power: 1.5, capacity: 5}",
	}, "\n")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlData), 0644))

	config, err := LoadScenarioConfig(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "json scenario", config.Name)
	assert.Equal(t, 20, config.TickIntervalMs)

	config, err = LoadScenarioConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "yaml scenario", config.Name)
	assert.Equal(t, 3.0, config.Costs().Rough)

	_, err = LoadScenarioConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	badPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0644))
	_, err = LoadScenarioConfig(badPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}
