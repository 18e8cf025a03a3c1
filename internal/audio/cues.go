// Package audio plays short synthesized cues for simulation events.
package audio

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"

	"cosmic-adventure/internal/game"
)

// Cue is one kind of sound effect.
type Cue uint8

const (
	CueFire Cue = iota
	CueHit
	CueDamage
	CueGameOver
	numCues
)

func (c Cue) String() string {
	switch c {
	case CueFire:
		return "fire"
	case CueHit:
		return "hit"
	case CueDamage:
		return "damage"
	case CueGameOver:
		return "game_over"
	}
	return "unknown"
}

// tone describes a cue as a faded sine burst
type tone struct {
	freq     float64
	duration time.Duration
	gain     float64 // relative to the master volume
}

var tones = [numCues]tone{
	CueFire:     {freq: 880, duration: 40 * time.Millisecond, gain: 0.3},
	CueHit:      {freq: 660, duration: 90 * time.Millisecond, gain: 1},
	CueDamage:   {freq: 160, duration: 180 * time.Millisecond, gain: 1},
	CueGameOver: {freq: 110, duration: 600 * time.Millisecond, gain: 1},
}

// CuesFor lists the cues a tick should play, loudest last.
// Game over replaces the damage cue of the final hit.
func CuesFor(report game.TickReport) []Cue {
	var cues []Cue
	if report.Fired {
		cues = append(cues, CueFire)
	}
	if len(report.Hits) > 0 {
		cues = append(cues, CueHit)
	}
	switch {
	case report.GameOver:
		cues = append(cues, CueGameOver)
	case report.PlayerHits > 0:
		cues = append(cues, CueDamage)
	}
	return cues
}

// Duration returns how long the cue plays.
func (c Cue) Duration() time.Duration {
	if c >= numCues {
		return 0
	}
	return tones[c].duration
}

// streamer builds a fresh, finite stream for the cue.
func (c Cue) streamer(sr beep.SampleRate, volume float64) (beep.Streamer, error) {
	if c >= numCues {
		return nil, nil
	}
	t := tones[c]
	sine, err := generators.SineTone(sr, t.freq)
	if err != nil {
		return nil, err
	}
	n := sr.N(t.duration)
	return withVolume(fadeOut(beep.Take(n, sine), n), volume*t.gain), nil
}

// fadeOut ramps the last quarter of an n-sample stream to silence so the
// burst does not end in a click.
func fadeOut(s beep.Streamer, n int) beep.Streamer {
	pos := 0
	tail := n / 4
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		got, ok := s.Stream(samples)
		for i := 0; i < got; i++ {
			if left := n - pos; left < tail {
				g := float64(left) / float64(tail)
				samples[i][0] *= g
				samples[i][1] *= g
			}
			pos++
		}
		return got, ok
	})
}

// withVolume maps a linear 0..1 volume onto beep's logarithmic control.
func withVolume(s beep.Streamer, v float64) beep.Streamer {
	return &effects.Volume{
		Streamer: s,
		Base:     2,
		Volume:   linearToLog2(v),
		Silent:   v <= 0,
	}
}
