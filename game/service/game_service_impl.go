package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/mcp-training/sanctuary/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
	log      logrus.FieldLogger
}

// getConfigID returns the config_id for a given scenario name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		log:      logrus.WithField("component", "service"),
	}
}

func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) info(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		Replaying:      sess.Replay.Running(),
		State:          enrich(sess.Sim.Snapshot()),
		Config:         sess.Config,
	}
}

// CreateSession creates a new simulation session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.ScenarioConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v", configName, configIDs)
				}
				return nil, fmt.Errorf("config '%s' not found. Use list_configs to see available configurations", configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	s.log.WithFields(logrus.Fields{"session": sess.ID, "config": configID}).Info("session created")
	return s.info(sess, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess, s.getConfigID(sess.Config.Name)))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.log.WithField("session", sessionID).Info("session deleted")
	return nil
}

// ComputeRoute stops any running replay, plans a new route and replays it
// either to completion or in the background.
func (s *gameServiceImpl) ComputeRoute(ctx context.Context, sessionID string, opts RunOptions) (*RouteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	// Only one replay per session: stop ticking before touching the route
	sess.Replay.Stop()

	logger := s.log.WithField("session", sessionID)
	route, err := sess.Sim.ComputeRoute()
	if err != nil {
		logger.WithError(err).Warn("route planning failed")
		return nil, fmt.Errorf("failed to compute route: %w", err)
	}

	result := &RouteResult{
		Route:          route,
		Length:         len(route),
		PlannedMinutes: route.Cost(sess.Sim.Grid()),
	}
	logger.WithFields(logrus.Fields{"length": result.Length, "planned": result.PlannedMinutes}).Info("route computed")

	if opts.Instant {
		if err := sess.Sim.Run(); err != nil {
			logger.WithError(err).Warn("replay failed")
			result.Message = fmt.Sprintf("Replay failed: %v", err)
		} else {
			result.Message = fmt.Sprintf("Route completed in %d minutes", sess.Sim.Snapshot().RoundedMinutes)
		}
	} else {
		// The replay outlives the request that started it
		sess.Replay.Start(context.WithoutCancel(ctx))
		result.Background = true
		result.Message = fmt.Sprintf("Replaying %d points every %s", len(route), sess.Replay.Interval())
	}

	result.State = enrich(sess.Sim.Snapshot())
	return result, nil
}

// Step advances a planned route by one point
func (s *gameServiceImpl) Step(ctx context.Context, sessionID string) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Replay.Running() {
		return nil, ErrReplayRunning
	}

	rec, err := sess.Sim.Step()
	if errors.Is(err, engine.ErrNotReplaying) {
		return nil, fmt.Errorf("cannot step while %s: %w", rec.Status, err)
	}

	result := &StepResult{Step: rec, State: enrich(sess.Sim.Snapshot())}
	switch {
	case err != nil:
		result.Message = fmt.Sprintf("Replay failed: %v", err)
	case rec.Engagement != nil:
		result.Message = fmt.Sprintf("Cleared %s with %s in %.2f minutes",
			rec.Waypoint, strings.Join(rec.Engagement.Selected, ", "), rec.Engagement.Duration)
	case rec.Status == engine.StatusCompleted:
		result.Message = fmt.Sprintf("Route completed in %d minutes", int(math.Round(rec.Total)))
	default:
		result.Message = fmt.Sprintf("Moved to %s (+%g)", rec.Position, rec.Minutes)
	}
	return result, nil
}

// AwaitReplay blocks until the background replay of a session ends.
// The service lock is not held while waiting.
func (s *gameServiceImpl) AwaitReplay(ctx context.Context, sessionID string) (*engine.State, error) {
	s.mu.RLock()
	sess, err := s.session(sessionID)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if err := sess.Replay.Wait(ctx); err != nil {
		return nil, err
	}
	return enrich(sess.Sim.Snapshot()), nil
}

// Reset stops any replay and restores the initial scenario
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Replay.Stop()
	sess.Sim.Reset()
	s.log.WithField("session", sessionID).Info("session reset")
	return enrich(sess.Sim.Snapshot()), nil
}

// ToggleTerrain cycles the terrain of an ordinary cell
func (s *gameServiceImpl) ToggleTerrain(ctx context.Context, sessionID string, p engine.Point) (*ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	terrain, err := sess.Sim.ToggleTerrain(p)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle %s: %w", p, err)
	}
	s.log.WithFields(logrus.Fields{"session": sessionID, "cell": p.String(), "terrain": terrain.String()}).Debug("terrain toggled")
	return &ToggleResult{Position: p, Terrain: terrain, State: enrich(sess.Sim.Snapshot())}, nil
}

// SetActorPower edits the power of a roster member
func (s *gameServiceImpl) SetActorPower(ctx context.Context, sessionID, name string, value float64) (*engine.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Sim.SetActorPower(name, value); err != nil {
		return nil, fmt.Errorf("failed to set power of %s: %w", name, err)
	}
	return enrich(sess.Sim.Snapshot()), nil
}

// SetWaypointDifficulty edits the difficulty of a waypoint
func (s *gameServiceImpl) SetWaypointDifficulty(ctx context.Context, sessionID, name string, value float64) (*engine.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Sim.SetWaypointDifficulty(name, value); err != nil {
		return nil, fmt.Errorf("failed to set difficulty of %s: %w", name, err)
	}
	return enrich(sess.Sim.Snapshot()), nil
}

// GetState retrieves the current simulation state
func (s *gameServiceImpl) GetState(ctx context.Context, sessionID string) (*engine.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return enrich(sess.Sim.Snapshot()), nil
}

// GetHistory returns paginated step history of the current run
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Sim.History()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var steps []engine.StepRecord
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			steps = append(steps, history[i])
		}
	} else if start < total {
		steps = history[start:end]
	}

	// Ensure steps is not nil
	if steps == nil {
		steps = []engine.StepRecord{}
	}

	return &HistoryResponse{
		Steps:       steps,
		TotalSteps:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// DescribeCell reports a cell, whether the current route crosses it and its
// eight neighbors.
func (s *gameServiceImpl) DescribeCell(ctx context.Context, sessionID string, p engine.Point) (*CellInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	grid := sess.Sim.Grid()
	cell, ok := grid.Cell(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrOutOfBounds, p)
	}
	return &CellInfo{
		Cell:         cell,
		Symbol:       string(engine.CellChar(cell)),
		OnRoute:      sess.Sim.Route().Contains(p),
		Surroundings: grid.Surroundings(p),
	}, nil
}

// ListConfigs returns available scenario configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific scenario configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.ScenarioConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a scenario configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.ScenarioConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// enrich adds decision aids to a snapshot
func enrich(state *engine.State) *engine.State {
	if state == nil {
		return nil
	}
	if wp, _, ok := engine.NextWaypoint(state); ok {
		state.NextWaypoint = wp.Name
	}
	state.RosterRisk = riskCode(engine.AssessRoster(state))
	return state
}

func riskCode(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "critical"):
		return "CRITICAL"
	case strings.Contains(t, "danger"):
		return "DANGER"
	case strings.Contains(t, "caution"):
		return "CAUTION"
	case strings.Contains(t, "safe"):
		return "SAFE"
	default:
		return "UNKNOWN"
	}
}
