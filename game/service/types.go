package service

import (
	"time"

	"github.com/wricardo/mcp-training/sanctuary/game/engine"
)

// SessionInfo provides information about a simulation session
type SessionInfo struct {
	ID             string                 `json:"id"`
	ConfigName     string                 `json:"config_name"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
	Replaying      bool                   `json:"replaying"`
	State          *engine.State          `json:"state"`
	Config         *engine.ScenarioConfig `json:"config"`
}

// RunOptions controls how a computed route is replayed
type RunOptions struct {
	// Instant replays the whole route before returning instead of ticking
	// in the background.
	Instant bool `json:"instant"`
}

// RouteResult contains the outcome of a route computation
type RouteResult struct {
	Route          []engine.Point `json:"route"`
	Length         int            `json:"length"`
	PlannedMinutes float64        `json:"planned_minutes"` // Terrain cost only, engagements excluded
	Background     bool           `json:"background"`
	State          *engine.State  `json:"state"`
	Message        string         `json:"message"`
}

// StepResult contains the outcome of a single manual tick
type StepResult struct {
	Step    engine.StepRecord `json:"step"`
	State   *engine.State     `json:"state"`
	Message string            `json:"message"`
}

// ToggleResult reports the terrain a cell was cycled to
type ToggleResult struct {
	Position engine.Point   `json:"position"`
	Terrain  engine.Terrain `json:"terrain"`
	State    *engine.State  `json:"state"`
}

// CellInfo describes one grid cell and its neighborhood
type CellInfo struct {
	Cell         engine.Cell              `json:"cell"`
	Symbol       string                   `json:"symbol"`
	OnRoute      bool                     `json:"on_route"`
	Surroundings []engine.SurroundingCell `json:"surroundings"`
}

// HistoryOptions configures step history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated step history
type HistoryResponse struct {
	Steps       []engine.StepRecord `json:"steps"`
	TotalSteps  int                 `json:"total_steps"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// ConfigInfo provides information about a scenario configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Waypoints   int    `json:"waypoints"`
	Actors      int    `json:"actors"`
}
