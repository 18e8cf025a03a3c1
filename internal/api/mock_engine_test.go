package api

import (
	"sync"

	"cosmic-adventure/internal/game"
)

// mockEngine implements EngineInterface without a tick loop.
type mockEngine struct {
	mu          sync.Mutex
	state       game.State
	intent      game.Intent
	lastSource  string
	running     bool
	resets      int
	leaderboard *game.Leaderboard
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		state:       game.NewState(),
		leaderboard: game.NewLeaderboard(game.DefaultLeaderboardSize),
	}
}

func (m *mockEngine) GetSnapshot() game.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockEngine) Stats() game.EngineStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return game.EngineStats{
		Tick:     m.state.Tick,
		Score:    m.state.Score,
		Life:     m.state.Player.Life,
		Running:  m.running,
		GameOver: m.state.IsGameOver(),
		Sessions: m.resets + 1,
	}
}

func (m *mockEngine) GetIntent() game.Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.intent
}

func (m *mockEngine) SetIntent(source string, in game.Intent) error {
	if err := in.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intent = in
	m.lastSource = source
	return nil
}

func (m *mockEngine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
}

func (m *mockEngine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

func (m *mockEngine) Reset() game.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = game.NewState()
	m.intent = game.NoIntent
	m.resets++
	return m.state
}

func (m *mockEngine) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *mockEngine) Leaderboard() *game.Leaderboard { return m.leaderboard }

func (m *mockEngine) EventLog() *game.EventLog { return nil }

func (m *mockEngine) source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSource
}

func (m *mockEngine) setState(s game.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}
