package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/sanctuary/game/engine"
)

func createTestConfig() *engine.ScenarioConfig {
	return &engine.ScenarioConfig{
		Name:        "Test Scenario",
		Description: "Test scenario",
		Layout: []string{
			"S....",
			".#H#.",
			".....",
			".#.#.",
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

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	t.Run("generated ID", func(t *testing.T) {
		session, err := manager.Create("", config)
		require.NoError(t, err)
		assert.Len(t, session.ID, 4)
		assert.NotNil(t, session.Sim)
		assert.NotNil(t, session.Replay)
		assert.Equal(t, config, session.Config)
		assert.False(t, session.CreatedAt.IsZero())
		assert.Equal(t, engine.StatusIdle, session.Sim.Status())
		assert.Equal(t, engine.DefaultTickInterval, session.Replay.Interval())
	})

	t.Run("explicit ID", func(t *testing.T) {
		session, err := manager.Create("abcd", config)
		require.NoError(t, err)
		assert.Equal(t, "abcd", session.ID)
	})

	t.Run("duplicate ID is case-insensitive", func(t *testing.T) {
		_, err := manager.Create("ABCD", config)
		assert.ErrorIs(t, err, ErrSessionAlreadyExists)
	})

	t.Run("whitespace ID", func(t *testing.T) {
		_, err := manager.Create(" ab ", config)
		assert.ErrorIs(t, err, ErrInvalidSessionID)
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := createTestConfig()
		bad.Actors = nil
		_, err := manager.Create("", bad)
		assert.Error(t, err)

		_, err = manager.Create("", nil)
		assert.Error(t, err)
	})
}

func TestManager_TickInterval(t *testing.T) {
	config := createTestConfig()
	config.TickIntervalMs = 80

	session, err := NewManager().Create("", config)
	require.NoError(t, err)
	assert.Equal(t, 80*time.Millisecond, session.Replay.Interval())

	session, err = NewManager(WithTickInterval(5*time.Millisecond)).Create("", config)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, session.Replay.Interval())
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, err := manager.Create("AbCd", createTestConfig())
	require.NoError(t, err)

	for _, id := range []string{"AbCd", "abcd", "ABCD"} {
		session, err := manager.Get(id)
		require.NoError(t, err, id)
		assert.Same(t, created, session)
	}

	_, err = manager.Get("zzzz")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager(WithTickInterval(time.Hour))
	session, err := manager.Create("test", createTestConfig())
	require.NoError(t, err)

	_, err = session.Sim.ComputeRoute()
	require.NoError(t, err)
	session.Replay.Start(context.Background())
	require.True(t, session.Replay.Running())

	require.NoError(t, manager.Delete("TEST"))
	assert.False(t, session.Replay.Running())
	assert.Equal(t, 0, manager.Count())

	assert.ErrorIs(t, manager.Delete("test"), ErrSessionNotFound)
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	assert.Empty(t, manager.List())

	for _, id := range []string{"aaaa", "bbbb", "cccc"} {
		_, err := manager.Create(id, createTestConfig())
		require.NoError(t, err)
	}

	var ids []string
	for _, s := range manager.List() {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"aaaa", "bbbb", "cccc"}, ids)
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	old, err := manager.Create("old", createTestConfig())
	require.NoError(t, err)
	_, err = manager.Create("new", createTestConfig())
	require.NoError(t, err)

	old.Touch(time.Now().Add(-2 * time.Hour))

	removed := manager.CleanupExpiredSessions(time.Hour)
	assert.Equal(t, 1, removed)

	_, err = manager.Get("old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = manager.Get("new")
	assert.NoError(t, err)
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, err := manager.Create("test", createTestConfig())
	require.NoError(t, err)

	before := session.LastAccessedAt()
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, manager.UpdateLastAccessed("TEST"))
	assert.True(t, session.LastAccessedAt().After(before))

	assert.ErrorIs(t, manager.UpdateLastAccessed("none"), ErrSessionNotFound)
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := manager.Create("", config)
			if assert.NoError(t, err) {
				ids <- session.ID
				_, err = manager.Get(session.ID)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[strings.ToLower(id)], "duplicate ID %s", id)
		seen[strings.ToLower(id)] = true
	}
	assert.Equal(t, 20, manager.Count())
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	a, err := manager.Create("aaaa", createTestConfig())
	require.NoError(t, err)
	b, err := manager.Create("bbbb", createTestConfig())
	require.NoError(t, err)

	_, err = a.Sim.ToggleTerrain(engine.Point{X: 1, Y: 0})
	require.NoError(t, err)
	require.NoError(t, a.Sim.SetActorPower("seiya", 9))

	stateB := b.Sim.Snapshot()
	assert.Equal(t, engine.Plain, stateB.Grid[0][1].Terrain)
	assert.Equal(t, 1.5, stateB.Actors[0].Power)
}

func TestManager_Shutdown(t *testing.T) {
	manager := NewManager(WithTickInterval(time.Hour))
	session, err := manager.Create("", createTestConfig())
	require.NoError(t, err)
	_, err = session.Sim.ComputeRoute()
	require.NoError(t, err)
	session.Replay.Start(context.Background())
	require.True(t, session.Replay.Running())

	manager.Shutdown()
	assert.False(t, session.Replay.Running())
}
