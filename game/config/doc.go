// Package config provides scenario configuration management for the Sanctuary
// route simulator.
//
// The config package handles:
//   - Loading scenarios from JSON or YAML files
//   - Structural validation against an embedded JSON schema
//   - Semantic validation through engine.ValidateScenarioConfig
//   - Default configuration management and discovery
//
// Configuration Format:
//
// Scenarios are stored as .json, .yaml or .yml files in the configs
// directory. Each scenario defines:
//   - A rectangular layout ('.' plain, '~' rough, '#' wall, 'S' start,
//     'E' end, 'H' waypoint)
//   - Optional terrain costs and replay cadence
//   - Ordered waypoints with difficulty, one per 'H' cell
//   - The actor roster with power and capacity
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	scenario, err := manager.LoadConfig("sanctuary")
//	configs, err := manager.ListConfigs()
//
// When no "sanctuary" scenario exists the first valid file becomes the
// default, and an empty directory falls back to engine.MinimalScenarioConfig.
package config
