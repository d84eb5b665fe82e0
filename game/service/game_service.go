package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/sanctuary/game/engine"
)

var (
	ErrReplayRunning = errors.New("a replay is running; wait for it or compute a new route")
)

// GameService defines all simulation operations exposed to presentation layers
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Driver
	ComputeRoute(ctx context.Context, sessionID string, opts RunOptions) (*RouteResult, error)
	Step(ctx context.Context, sessionID string) (*StepResult, error)
	AwaitReplay(ctx context.Context, sessionID string) (*engine.State, error)
	Reset(ctx context.Context, sessionID string) (*engine.State, error)

	// Edits
	ToggleTerrain(ctx context.Context, sessionID string, p engine.Point) (*ToggleResult, error)
	SetActorPower(ctx context.Context, sessionID, name string, value float64) (*engine.State, error)
	SetWaypointDifficulty(ctx context.Context, sessionID, name string, value float64) (*engine.State, error)

	// Observation
	GetState(ctx context.Context, sessionID string) (*engine.State, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	DescribeCell(ctx context.Context, sessionID string, p engine.Point) (*CellInfo, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.ScenarioConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.ScenarioConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.ScenarioConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles scenario configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.ScenarioConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.ScenarioConfig
	SaveConfig(name string, config *engine.ScenarioConfig) error
}

// Session represents an active simulation session
type Session struct {
	ID        string
	Sim       *engine.Simulation
	Replay    *engine.Replayer
	Config    *engine.ScenarioConfig
	CreatedAt time.Time

	mu             sync.Mutex
	lastAccessedAt time.Time
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessedAt = t
}

// LastAccessedAt returns the time of the latest access
func (s *Session) LastAccessedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessedAt
}
