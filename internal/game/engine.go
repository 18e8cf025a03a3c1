package game

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

// DefaultTickInterval is the reference cadence of the simulation.
const DefaultTickInterval = 30 * time.Millisecond

// EngineConfig configures a new Engine.
type EngineConfig struct {
	TickInterval time.Duration // zero means DefaultTickInterval
	Tuning       Tuning        // zero value means DefaultTuning()
	Seed         int64         // zero means seeded from the clock
}

// EngineStats is a point-in-time summary for the API and metrics.
type EngineStats struct {
	Tick            uint64 `json:"tick"`
	Score           int    `json:"score"`
	Life            int    `json:"life"`
	Projectiles     int    `json:"projectiles"`
	Adversaries     int    `json:"adversaries"`
	Running         bool   `json:"running"`
	GameOver        bool   `json:"gameOver"`
	Sessions        int    `json:"sessions"`
	TotalFired      uint64 `json:"totalFired"`
	TotalSpawned    uint64 `json:"totalSpawned"`
	TotalHits       uint64 `json:"totalHits"`
	TotalPlayerHits uint64 `json:"totalPlayerHits"`
}

// Engine drives the simulation at a fixed interval.
//
// It is the only mutator of the current snapshot. Exactly one tick runs at a
// time; readers get value snapshots that later ticks never modify.
type Engine struct {
	mu     sync.RWMutex
	tuning Tuning
	state  State
	intent Intent

	tickInterval time.Duration
	running      bool
	ticker       *time.Ticker
	stopChan     chan struct{}

	// Deterministic RNG: every tick gets a fresh seed drawn from here,
	// and that seed is logged so the tick can be replayed.
	rng *rand.Rand

	eventLog    *EventLog
	leaderboard *Leaderboard

	onTick     func(state State, report TickReport, elapsed time.Duration)
	onGameOver func(state State)

	// Stats
	sessions        int
	totalFired      uint64
	totalSpawned    uint64
	totalHits       uint64
	totalPlayerHits uint64
}

// NewEngine creates an engine holding the initial state. It does not tick
// until Start is called.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Tuning == (Tuning{}) {
		cfg.Tuning = DefaultTuning()
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Engine{
		tuning:       cfg.Tuning,
		state:        cfg.Tuning.NewState(),
		tickInterval: cfg.TickInterval,
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		eventLog:     NewEventLog(),
		leaderboard:  NewLeaderboard(DefaultLeaderboardSize),
		sessions:     1,
	}
}

// Start begins the tick loop. A session that already ended is reset first,
// so Start doubles as "play again".
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	if e.state.IsGameOver() {
		e.resetLocked()
	}
	e.running = true
	e.stopChan = make(chan struct{})
	e.ticker = time.NewTicker(e.tickInterval)
	ticker, stop := e.ticker, e.stopChan
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				e.tick(stop)
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Simulation started, tick every %v", e.tickInterval)
}

// Stop halts the tick loop. The last snapshot stays readable.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.stopLocked()
	log.Printf("🛑 Simulation stopped at tick %d (score %d)", e.state.Tick, e.state.Score)
}

func (e *Engine) stopLocked() {
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
}

// IsRunning reports whether the tick loop is active.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// tick is called once per interval by the loop goroutine that owns stop.
// A loop that was stopped, even if the engine has since been restarted,
// must not advance the new session.
func (e *Engine) tick(stop <-chan struct{}) {
	start := time.Now()

	e.mu.Lock()
	select {
	case <-stop:
		e.mu.Unlock()
		return
	default:
	}
	if !e.running {
		e.mu.Unlock()
		return
	}
	next, report := e.advanceLocked()
	if report.GameOver {
		e.stopLocked()
	}
	onTick, onGameOver := e.onTick, e.onGameOver
	e.mu.Unlock()

	if onTick != nil {
		onTick(next, report, time.Since(start))
	}
	if report.GameOver {
		log.Printf("💀 Game over at tick %d, final score %d", next.Tick, next.Score)
		if onGameOver != nil {
			go onGameOver(next)
		}
	}
}

// StepOnce runs a single tick outside the loop. Used by front-ends that own
// their own timer and by tests.
func (e *Engine) StepOnce() State {
	e.mu.Lock()
	next, _ := e.advanceLocked()
	e.mu.Unlock()
	return next
}

// advanceLocked runs one tick with the current intent. Caller holds e.mu.
func (e *Engine) advanceLocked() (State, TickReport) {
	if e.state.IsGameOver() {
		return e.state, TickReport{GameOver: true}
	}

	seed := e.rng.Int63()
	tickNum := e.state.Tick + 1

	// Log tick event with RNG seed for deterministic replay
	e.eventLog.EmitSimple(EventTypeTick, tickNum, "", TickPayload{RNGSeed: seed, Intent: e.intent})

	// The intent was validated when it was set, so Advance cannot fail here.
	next, report, err := e.tuning.Advance(e.state, e.intent, rand.New(rand.NewSource(seed)))
	if err != nil {
		log.Printf("⚠️ Tick %d rejected: %v", tickNum, err)
		return e.state, report
	}
	e.state = next

	if report.Fired {
		e.totalFired++
	}
	if report.Spawned != nil {
		e.totalSpawned++
		e.eventLog.EmitSimple(EventTypeSpawn, tickNum, "", SpawnPayload{
			AdversaryID: report.Spawned.ID,
			X:           report.Spawned.X,
			Variant:     report.Spawned.Variant,
		})
	}
	for _, h := range report.Hits {
		e.totalHits++
		e.eventLog.EmitSimple(EventTypeHit, tickNum, "", HitPayload{
			ProjectileID: h.ProjectileID,
			AdversaryID:  h.AdversaryID,
			Score:        next.Score,
		})
	}
	if report.PlayerHits > 0 {
		e.totalPlayerHits += uint64(report.PlayerHits)
		e.eventLog.EmitSimple(EventTypePlayerHit, tickNum, "", PlayerHitPayload{
			Collisions: report.PlayerHits,
			Life:       next.Player.Life,
		})
	}
	if report.GameOver {
		e.leaderboard.Record(e.sessions, next.Score, next.Tick)
		e.eventLog.EmitSimple(EventTypeGameOver, tickNum, "", GameOverPayload{
			Score: next.Score,
			Ticks: next.Tick,
		})
	}
	return next, report
}

// SetIntent replaces the intent applied on subsequent ticks.
// source identifies the client for event log rate limiting; empty for local input.
// A malformed intent is rejected with *InvalidInputError and the previous one kept.
func (e *Engine) SetIntent(source string, in Intent) error {
	if err := in.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if in != e.intent {
		e.intent = in
		e.eventLog.EmitSimple(EventTypeIntent, e.state.Tick, source, IntentPayload{Intent: in})
	}
	return nil
}

// GetIntent returns the intent applied on the next tick.
func (e *Engine) GetIntent() Intent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.intent
}

// Reset discards the current session and returns to the initial state.
// The loop keeps its running/stopped status.
func (e *Engine) Reset() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
	return e.state
}

func (e *Engine) resetLocked() {
	e.state = e.tuning.NewState()
	e.intent = NoIntent
	e.sessions++
	e.eventLog.EmitSimple(EventTypeReset, 0, "", ResetPayload{Tuning: e.tuning})
	log.Printf("🔄 Session %d ready", e.sessions)
}

// GetSnapshot returns the latest immutable snapshot.
func (e *Engine) GetSnapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Tuning returns the tuning this engine simulates with.
func (e *Engine) Tuning() Tuning {
	return e.tuning
}

// TickInterval returns the loop cadence.
func (e *Engine) TickInterval() time.Duration {
	return e.tickInterval
}

// Stats returns counters for the API and metrics.
func (e *Engine) Stats() EngineStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return EngineStats{
		Tick:            e.state.Tick,
		Score:           e.state.Score,
		Life:            e.state.Player.Life,
		Projectiles:     len(e.state.Projectiles),
		Adversaries:     len(e.state.Adversaries),
		Running:         e.running,
		GameOver:        e.state.IsGameOver(),
		Sessions:        e.sessions,
		TotalFired:      e.totalFired,
		TotalSpawned:    e.totalSpawned,
		TotalHits:       e.totalHits,
		TotalPlayerHits: e.totalPlayerHits,
	}
}

// SetCallbacks sets event callbacks. onTick runs synchronously after every
// tick, outside the engine lock; onGameOver runs in its own goroutine.
func (e *Engine) SetCallbacks(onTick func(State, TickReport, time.Duration), onGameOver func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = onTick
	e.onGameOver = onGameOver
}

// StartEventLog starts the async event log writer. The initial session is
// recorded as a reset so the file replays on its own.
func (e *Engine) StartEventLog(path string) error {
	if err := e.eventLog.Start(path); err != nil {
		return err
	}
	e.mu.RLock()
	tick := e.state.Tick
	e.mu.RUnlock()
	if tick == 0 {
		e.eventLog.EmitSimple(EventTypeReset, 0, "", ResetPayload{Tuning: e.tuning})
	}
	return nil
}

// StopEventLog flushes and closes the event log.
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// EventLog exposes the log for stats.
func (e *Engine) EventLog() *EventLog {
	return e.eventLog
}

// Leaderboard returns the finished sessions of this engine.
func (e *Engine) Leaderboard() *Leaderboard {
	return e.leaderboard
}
