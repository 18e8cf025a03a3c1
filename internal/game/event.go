package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown   EventType = iota
	EventTypeTick                // Tick boundary with RNG seed and intent
	EventTypeSpawn               // Adversary entered the play area
	EventTypeHit                 // Projectile destroyed an adversary
	EventTypePlayerHit           // Adversary collided with the player
	EventTypeGameOver            // Life reached zero
	EventTypeReset               // Session restarted from the initial state
	EventTypeIntent              // Client changed its intent
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8           `json:"version"`   // Schema version
	Type      EventType       `json:"type"`      // Event type
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic sequence
	TickNum   uint64          `json:"tickNum"`   // Tick this occurred in
	Source    string          `json:"source"`    // Emitting client, empty for the engine
	Payload   json.RawMessage `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeSpawn:
		return "spawn"
	case EventTypeHit:
		return "hit"
	case EventTypePlayerHit:
		return "player_hit"
	case EventTypeGameOver:
		return "game_over"
	case EventTypeReset:
		return "reset"
	case EventTypeIntent:
		return "intent"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// TickPayload carries everything needed to replay one tick.
type TickPayload struct {
	RNGSeed int64  `json:"rngSeed"`
	Intent  Intent `json:"intent"`
}

// SpawnPayload contains spawn details
type SpawnPayload struct {
	AdversaryID uint64  `json:"adversaryId"`
	X           float64 `json:"x"`
	Variant     int     `json:"variant"`
}

// HitPayload contains projectile hit details
type HitPayload struct {
	ProjectileID uint64 `json:"projectileId"`
	AdversaryID  uint64 `json:"adversaryId"`
	Score        int    `json:"score"`
}

// PlayerHitPayload contains collision details
type PlayerHitPayload struct {
	Collisions int `json:"collisions"`
	Life       int `json:"life"`
}

// GameOverPayload contains the final tally
type GameOverPayload struct {
	Score int    `json:"score"`
	Ticks uint64 `json:"ticks"`
}

// ResetPayload records the tuning a session was (re)started with
type ResetPayload struct {
	Tuning Tuning `json:"tuning"`
}

// IntentPayload records an intent change from a client
type IntentPayload struct {
	Intent Intent `json:"intent"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, source string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}
