package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/mcp-training/sanctuary/game/engine"
	"github.com/wricardo/mcp-training/sanctuary/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager handles simulation session lifecycle. Sessions live in memory only.
type Manager struct {
	sessions     map[string]*service.Session
	tickInterval time.Duration
	log          logrus.FieldLogger
	mu           sync.RWMutex
}

// Option configures a Manager
type Option func(*Manager)

// WithTickInterval overrides the replay cadence of every new session
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) { m.tickInterval = d }
}

// WithLogger sets the logger used for session and replay events
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		log:      logrus.WithField("component", "session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create creates a new session with the given ID and configuration
func (m *Manager) Create(id string, config *engine.ScenarioConfig) (*service.Session, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		var err error
		if id, err = m.generateSessionID(); err != nil {
			return nil, err
		}
	} else if strings.TrimSpace(id) != id {
		return nil, ErrInvalidSessionID
	}

	// Check if session already exists (case-insensitive)
	if m.sessionExists(id) {
		return nil, ErrSessionAlreadyExists
	}

	sim, err := engine.NewSimulation(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create simulation: %w", err)
	}

	interval := config.TickInterval()
	if m.tickInterval > 0 {
		interval = m.tickInterval
	}

	now := time.Now()
	session := &service.Session{
		ID:        id,
		Sim:       sim,
		Replay:    engine.NewReplayer(sim, interval, m.observer(id)),
		Config:    config,
		CreatedAt: now,
	}
	session.Touch(now)

	m.sessions[strings.ToLower(id)] = session
	return session, nil
}

// observer logs replay ticks for one session
func (m *Manager) observer(id string) engine.StepObserver {
	logger := m.log.WithField("session", id)
	return func(rec engine.StepRecord, err error) {
		entry := logger.WithFields(logrus.Fields{
			"step":   rec.Index,
			"cell":   rec.Position.String(),
			"total":  rec.Total,
			"status": string(rec.Status),
		})
		switch {
		case err != nil:
			entry.WithError(err).Warn("replay failed")
		case rec.Engagement != nil:
			entry.WithFields(logrus.Fields{
				"waypoint": rec.Waypoint,
				"actors":   strings.Join(rec.Engagement.Selected, ","),
				"duration": rec.Engagement.Duration,
			}).Info("waypoint cleared")
		case rec.Status == engine.StatusCompleted:
			entry.Info("replay completed")
		default:
			entry.Debug("replay tick")
		}
	}
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete stops a session's replay and removes the session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	lowerID := strings.ToLower(id)
	session, exists := m.sessions[lowerID]
	if exists {
		delete(m.sessions, lowerID)
	}
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	session.Replay.Stop()
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return ErrSessionNotFound
	}

	session.Touch(time.Now())
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	cutoff := time.Now().Add(-maxAge)
	var expired []*service.Session
	for id, session := range m.sessions {
		if session.LastAccessedAt().Before(cutoff) {
			delete(m.sessions, id)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.Replay.Stop()
	}
	if len(expired) > 0 {
		m.log.WithField("removed", len(expired)).Info("expired sessions cleaned up")
	}
	return len(expired)
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown stops every running replay
func (m *Manager) Shutdown() {
	for _, session := range m.List() {
		session.Replay.Stop()
	}
}

// generateSessionID generates a random 4-character session ID not yet in use.
// Caller holds mu.
func (m *Manager) generateSessionID() (string, error) {
	for {
		// Generate 2 random bytes (4 hex characters)
		bytes := make([]byte, 2)
		if _, err := rand.Read(bytes); err != nil {
			return "", fmt.Errorf("failed to generate session ID: %w", err)
		}
		id := hex.EncodeToString(bytes)
		if !m.sessionExists(id) {
			return id, nil
		}
	}
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
