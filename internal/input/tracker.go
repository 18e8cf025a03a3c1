// Package input turns raw key activity into per-tick game intents.
//
// Browsers deliver key-down and key-up, so a key is held between the two.
// Terminals only deliver repeated presses, so a pressed key counts as held
// until HoldTimeout passes without another press.
package input

import (
	"sync"
	"time"

	"cosmic-adventure/internal/game"
)

// DefaultHoldTimeout covers the gap between terminal key repeats.
const DefaultHoldTimeout = 150 * time.Millisecond

// Key is one of the five game controls.
type Key uint8

const (
	KeyNone Key = iota
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyFire

	numKeys
)

var keyIntents = [numKeys]game.Intent{
	KeyLeft:  game.MoveLeft,
	KeyRight: game.MoveRight,
	KeyUp:    game.MoveUp,
	KeyDown:  game.MoveDown,
	KeyFire:  game.Fire,
}

// KeyFromName maps DOM KeyboardEvent key/code names to a Key.
func KeyFromName(name string) Key {
	switch name {
	case "ArrowLeft", "Left", "a", "KeyA":
		return KeyLeft
	case "ArrowRight", "Right", "d", "KeyD":
		return KeyRight
	case "ArrowUp", "Up", "w", "KeyW":
		return KeyUp
	case "ArrowDown", "Down", "s", "KeyS":
		return KeyDown
	case " ", "Space", "Spacebar":
		return KeyFire
	default:
		return KeyNone
	}
}

// Tracker holds the state of the five controls. Safe for concurrent use.
type Tracker struct {
	mu          sync.Mutex
	holdTimeout time.Duration
	down        [numKeys]bool
	pressedAt   [numKeys]time.Time
}

// NewTracker creates a tracker. holdTimeout <= 0 uses DefaultHoldTimeout.
func NewTracker(holdTimeout time.Duration) *Tracker {
	if holdTimeout <= 0 {
		holdTimeout = DefaultHoldTimeout
	}
	return &Tracker{holdTimeout: holdTimeout}
}

// KeyDown marks k as held until KeyUp.
func (t *Tracker) KeyDown(k Key) {
	if !valid(k) {
		return
	}
	t.mu.Lock()
	t.down[k] = true
	t.mu.Unlock()
}

// KeyUp releases k, including any pending Press.
func (t *Tracker) KeyUp(k Key) {
	if !valid(k) {
		return
	}
	t.mu.Lock()
	t.down[k] = false
	t.pressedAt[k] = time.Time{}
	t.mu.Unlock()
}

// Press records a key event from a device without key-up.
func (t *Tracker) Press(k Key, now time.Time) {
	if !valid(k) {
		return
	}
	t.mu.Lock()
	t.pressedAt[k] = now
	t.mu.Unlock()
}

// Held reports whether k counts as held at now.
func (t *Tracker) Held(k Key, now time.Time) bool {
	if !valid(k) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.heldLocked(k, now)
}

// Intent returns the intent for a tick starting at now.
func (t *Tracker) Intent(now time.Time) game.Intent {
	t.mu.Lock()
	defer t.mu.Unlock()

	in := game.NoIntent
	for k := KeyLeft; k < numKeys; k++ {
		if t.heldLocked(k, now) {
			in |= keyIntents[k]
		}
	}
	return in
}

// Reset releases every key.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.down = [numKeys]bool{}
	t.pressedAt = [numKeys]time.Time{}
	t.mu.Unlock()
}

func (t *Tracker) heldLocked(k Key, now time.Time) bool {
	if t.down[k] {
		return true
	}
	p := t.pressedAt[k]
	return !p.IsZero() && now.Sub(p) < t.holdTimeout
}

func valid(k Key) bool {
	return k > KeyNone && k < numKeys
}
