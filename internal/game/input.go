package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Intent is the normalized per-tick request from the input collaborator.
// It is a bit set; several directions may be held at once.
type Intent uint8

const (
	MoveLeft Intent = 1 << iota
	MoveRight
	MoveUp
	MoveDown
	Fire

	// intentMask covers every defined bit. Anything outside it is malformed.
	intentMask = MoveLeft | MoveRight | MoveUp | MoveDown | Fire
)

// NoIntent requests nothing: the player stays put and does not fire.
const NoIntent Intent = 0

// NewIntent builds an Intent from the five key states.
func NewIntent(left, right, up, down, fire bool) Intent {
	var in Intent
	if left {
		in |= MoveLeft
	}
	if right {
		in |= MoveRight
	}
	if up {
		in |= MoveUp
	}
	if down {
		in |= MoveDown
	}
	if fire {
		in |= Fire
	}
	return in
}

func (in Intent) Left() bool   { return in&MoveLeft != 0 }
func (in Intent) Right() bool  { return in&MoveRight != 0 }
func (in Intent) Up() bool     { return in&MoveUp != 0 }
func (in Intent) Down() bool   { return in&MoveDown != 0 }
func (in Intent) Firing() bool { return in&Fire != 0 }

// Validate rejects intents carrying undefined bits.
func (in Intent) Validate() error {
	if in&^intentMask != 0 {
		return &InvalidInputError{Reason: fmt.Sprintf("unknown intent bits 0x%02x", uint8(in&^intentMask))}
	}
	return nil
}

// String returns a compact form such as "L-U-F" for logs.
func (in Intent) String() string {
	if in == NoIntent {
		return "none"
	}
	b := []byte("-----")
	for i, c := range []byte("LRUDF") {
		if in&(1<<i) != 0 {
			b[i] = c
		}
	}
	return string(b)
}

// IntentMessage is the JSON shape of an intent on the wire.
type IntentMessage struct {
	MoveLeft  bool `json:"moveLeft"`
	MoveRight bool `json:"moveRight"`
	MoveUp    bool `json:"moveUp"`
	MoveDown  bool `json:"moveDown"`
	Firing    bool `json:"firing"`
}

// Intent converts the message to an Intent.
func (m IntentMessage) Intent() Intent {
	return NewIntent(m.MoveLeft, m.MoveRight, m.MoveUp, m.MoveDown, m.Firing)
}

// Message converts the Intent to its wire form.
func (in Intent) Message() IntentMessage {
	return IntentMessage{
		MoveLeft:  in.Left(),
		MoveRight: in.Right(),
		MoveUp:    in.Up(),
		MoveDown:  in.Down(),
		Firing:    in.Firing(),
	}
}

// ParseIntent strictly decodes a JSON intent.
// Unknown fields, non-boolean values and trailing data are rejected with
// *InvalidInputError rather than silently ignored.
func ParseIntent(data []byte) (Intent, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return NoIntent, &InvalidInputError{Reason: "empty intent"}
	}
	if trimmed[0] != '{' {
		return NoIntent, &InvalidInputError{Reason: "intent must be a JSON object"}
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	// Raw values so names match exactly and null is not read as false
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return NoIntent, &InvalidInputError{Reason: "malformed intent", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return NoIntent, &InvalidInputError{Reason: "trailing data after intent"}
	}

	in := NoIntent
	for name, raw := range fields {
		bit, ok := intentFields[name]
		if !ok {
			return NoIntent, &InvalidInputError{Reason: fmt.Sprintf("unknown field %q", name)}
		}
		switch string(bytes.TrimSpace(raw)) {
		case "true":
			in |= bit
		case "false":
		default:
			return NoIntent, &InvalidInputError{Reason: fmt.Sprintf("%s must be true or false", name)}
		}
	}
	return in, nil
}

// intentFields maps the wire names of IntentMessage to their bits.
var intentFields = map[string]Intent{
	"moveLeft":  MoveLeft,
	"moveRight": MoveRight,
	"moveUp":    MoveUp,
	"moveDown":  MoveDown,
	"firing":    Fire,
}

// InvalidInputError reports a malformed or out-of-range intent.
// The tick that received it is rejected and the prior state is kept.
type InvalidInputError struct {
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Reason, e.Err)
	}
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}
