package game

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
)

// ErrReplayGap is returned when the recorded ticks are not contiguous,
// typically because the event log dropped events under load.
var ErrReplayGap = errors.New("replay: tick sequence has a gap")

// ReadEvents decodes a newline-delimited JSON event log.
func ReadEvents(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return nil, fmt.Errorf("replay: line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("replay: read: %w", err)
	}
	return events, nil
}

// Replay re-runs the tick records of the last session in events and returns
// the resulting state. Each tick is re-executed with a fresh source seeded
// from the recorded seed, exactly as the engine does, so the result equals
// the live snapshot at the time of the last recorded tick.
//
// A reset event starts a new session with the tuning it carries; ticks before
// the last reset are ignored. Without any reset record DefaultTuning is used.
func Replay(events []Event) (State, error) {
	t := DefaultTuning()
	state := t.NewState()

	for _, ev := range events {
		switch ev.Type {
		case EventTypeReset:
			var p ResetPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return state, fmt.Errorf("replay: reset payload: %w", err)
			}
			if err := p.Tuning.Validate(); err != nil {
				return state, fmt.Errorf("replay: recorded tuning: %w", err)
			}
			t = p.Tuning
			state = t.NewState()

		case EventTypeTick:
			var p TickPayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				return state, fmt.Errorf("replay: tick %d payload: %w", ev.TickNum, err)
			}
			if ev.TickNum != state.Tick+1 {
				return state, fmt.Errorf("%w: have %d, next record is %d", ErrReplayGap, state.Tick, ev.TickNum)
			}

			next, err := t.Step(state, p.Intent, rand.New(rand.NewSource(p.RNGSeed)))
			if err != nil {
				return state, fmt.Errorf("replay: tick %d: %w", ev.TickNum, err)
			}
			state = next
		}
	}
	return state, nil
}

// SessionTuning returns the tuning carried by the last valid reset event,
// or DefaultTuning when there is none.
func SessionTuning(events []Event) Tuning {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type != EventTypeReset {
			continue
		}
		var p ResetPayload
		if err := json.Unmarshal(events[i].Payload, &p); err == nil && p.Tuning.Validate() == nil {
			return p.Tuning
		}
	}
	return DefaultTuning()
}
