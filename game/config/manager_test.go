package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/sanctuary/game/engine"
)

func createValidConfig() *engine.ScenarioConfig {
	return &engine.ScenarioConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		Layout: []string{
			"S....",
			".#H#.",
			".....",
			".#~#.",
			"....E",
		},
		Waypoints: []engine.WaypointConfig{
			{Name: "aries", X: 2, Y: 1, Difficulty: 50},
		},
		Actors: []engine.ActorConfig{
			{Name: "seiya", Power: 1.5, Capacity: 5},
		},
	}
}

func writeConfigFile(t *testing.T, dir, filename string, config *engine.ScenarioConfig) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0644))
}

const yamlScenario = `name: Yaml Config
description: from yaml
layout:
  - "S.H"
  - "..E"
waypoints:
  - {name: aries, x: 2, y: 0, difficulty: 50}
actors:
  - {name: seiya, power: 1.5, capacity: 5}
`

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("empty directory uses minimal default", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "default", manager.GetDefault().Name)
	})

	t.Run("prefers sanctuary", func(t *testing.T) {
		dir := t.TempDir()
		other := createValidConfig()
		other.Name = "Another"
		writeConfigFile(t, dir, "another.json", other)
		preferred := createValidConfig()
		preferred.Name = "Preferred"
		writeConfigFile(t, dir, DefaultConfigName+".json", preferred)

		manager, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "Preferred", manager.GetDefault().Name)
	})

	t.Run("falls back to first valid file", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "only.json", createValidConfig())

		manager, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "Test Config", manager.GetDefault().Name)
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "valid.json", createValidConfig())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yamlish.yaml"), []byte(yamlScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))

	schemaBad := createValidConfig()
	schemaBad.Actors[0].Capacity = -1
	writeConfigFile(t, dir, "schema_bad.json", schemaBad)

	semanticBad := createValidConfig()
	semanticBad.Waypoints[0].X = 0
	writeConfigFile(t, dir, "semantic_bad.json", semanticBad)

	manager, err := NewManager(dir)
	require.NoError(t, err)

	t.Run("json by name", func(t *testing.T) {
		config, err := manager.LoadConfig("valid")
		require.NoError(t, err)
		assert.Equal(t, "Test Config", config.Name)
	})

	t.Run("json with extension", func(t *testing.T) {
		config, err := manager.LoadConfig("valid.json")
		require.NoError(t, err)
		assert.Equal(t, "Test Config", config.Name)
	})

	t.Run("yaml", func(t *testing.T) {
		config, err := manager.LoadConfig("yamlish")
		require.NoError(t, err)
		assert.Equal(t, "Yaml Config", config.Name)
		assert.Len(t, config.Layout, 2)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := manager.LoadConfig("missing")
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := manager.LoadConfig("broken")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config")
	})

	t.Run("schema violation", func(t *testing.T) {
		_, err := manager.LoadConfig("schema_bad")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("semantic violation", func(t *testing.T) {
		_, err := manager.LoadConfig("semantic_bad")
		require.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), "not on an 'H' layout cell")
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "b_valid.json", createValidConfig())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_yaml.yml"), []byte(yamlScenario), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	manager, err := NewManager(dir)
	require.NoError(t, err)

	configs, err := manager.ListConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, "a_yaml", configs[0].ConfigID)
	assert.Equal(t, "a_yaml.yml", configs[0].Filename)
	assert.Equal(t, 3, configs[0].Width)
	assert.Equal(t, 2, configs[0].Height)

	assert.Equal(t, "b_valid", configs[1].ConfigID)
	assert.Equal(t, "Test Config", configs[1].Name)
	assert.Equal(t, 1, configs[1].Waypoints)
	assert.Equal(t, 1, configs[1].Actors)
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	config := createValidConfig()
	require.NoError(t, manager.SaveConfig("saved", config))
	require.NoError(t, manager.SaveConfig("saved_yaml.yaml", config))
	assert.FileExists(t, filepath.Join(dir, "saved.json"))
	assert.FileExists(t, filepath.Join(dir, "saved_yaml.yaml"))

	// A fresh manager reads both back from disk
	fresh, err := NewManager(dir)
	require.NoError(t, err)
	for _, name := range []string{"saved", "saved_yaml"} {
		loaded, err := fresh.LoadConfig(name)
		require.NoError(t, err, name)
		assert.Equal(t, config.Layout, loaded.Layout)
		assert.Equal(t, config.Waypoints, loaded.Waypoints)
		assert.Equal(t, config.Actors, loaded.Actors)
	}

	bad := createValidConfig()
	bad.Actors = nil
	assert.ErrorIs(t, manager.SaveConfig("bad", bad), ErrInvalidConfig)
}

func TestManager_SetDefaultAndRefresh(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "first.json", createValidConfig())
	manager, err := NewManager(dir)
	require.NoError(t, err)

	second := createValidConfig()
	second.Name = "Second"
	writeConfigFile(t, dir, "second.json", second)
	require.NoError(t, manager.SetDefault("second"))
	assert.Equal(t, "Second", manager.GetDefault().Name)

	// Cached until refreshed
	second.Name = "Second Edited"
	writeConfigFile(t, dir, "second.json", second)
	config, err := manager.LoadConfig("second")
	require.NoError(t, err)
	assert.Equal(t, "Second", config.Name)

	require.NoError(t, manager.RefreshCache())
	config, err = manager.LoadConfig("second")
	require.NoError(t, err)
	assert.Equal(t, "Second Edited", config.Name)
	assert.Equal(t, "Test Config", manager.GetDefault().Name)

	assert.ErrorIs(t, manager.SetDefault("missing"), ErrConfigNotFound)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "shared.json", createValidConfig())
	manager, err := NewManager(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			config, err := manager.LoadConfig("shared")
			if assert.NoError(t, err) {
				assert.Equal(t, "Test Config", config.Name)
			}
			_, err = manager.ListConfigs()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(yamlScenario), 0644))

	config, err := ValidateFile(good)
	require.NoError(t, err)
	assert.Equal(t, "Yaml Config", config.Name)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: x\nlayout: [\"SQ\", \"..\"]\nwaypoints: []\nactors: []\n"), 0644))
	_, err = ValidateFile(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ValidateFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestValidateDocument_TerrainCosts(t *testing.T) {
	tests := []struct {
		name    string
		costs   string
		wantErr bool
		want    engine.TerrainCosts
	}{
		{"zero plain", "terrain_costs:\n  plain: 0\n", true, engine.TerrainCosts{}},
		{"negative rough", "terrain_costs:\n  rough: -2\n", true, engine.TerrainCosts{}},
		{"rough only", "terrain_costs:\n  rough: 2\n", false, engine.TerrainCosts{Plain: engine.DefaultPlainMinutes, Rough: 2}},
		{"both", "terrain_costs:\n  plain: 0.5\n  rough: 3\n", false, engine.TerrainCosts{Plain: 0.5, Rough: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "costs.yaml")
			require.NoError(t, os.WriteFile(path, []byte(yamlScenario+tt.costs), 0644))

			config, err := ValidateFile(path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, config.Costs())
		})
	}
}

func TestBundledScenarios(t *testing.T) {
	manager, err := NewManager(filepath.Join("..", "..", "configs"))
	require.NoError(t, err)
	assert.Equal(t, "Sanctuary", manager.GetDefault().Name)

	for _, name := range []string{"sanctuary", "trial"} {
		config, err := manager.LoadConfig(name)
		require.NoError(t, err, name)

		sim, err := engine.NewSimulation(config)
		require.NoError(t, err, name)
		_, err = sim.ComputeRoute()
		require.NoError(t, err, name)
	}

	sanctuary, err := manager.LoadConfig("sanctuary")
	require.NoError(t, err)
	assert.Len(t, sanctuary.Layout, 42)
	assert.Len(t, sanctuary.Waypoints, 12)
	assert.Len(t, sanctuary.Actors, 5)
}
