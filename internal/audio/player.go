package audio

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"cosmic-adventure/internal/config"
	"cosmic-adventure/internal/game"
)

// MaxActiveCues caps overlapping effects; extra cues are dropped.
const MaxActiveCues = 8

// Player mixes cues and optional background music onto the speaker.
// Every method is a no-op until Init succeeds, so callers never need to
// check whether a sound device exists.
type Player struct {
	mu          sync.Mutex
	sampleRate  beep.SampleRate
	volume      float64
	enabled     bool
	musicPath   string
	mixer       *beep.Mixer
	music       *Music
	initialized bool
}

// NewPlayer creates a player from the audio settings. It does not touch the device.
func NewPlayer(cfg config.AudioConfig) *Player {
	sr := cfg.SampleRate
	if sr <= 0 {
		sr = config.DefaultAudio().SampleRate
	}
	return &Player{
		sampleRate: beep.SampleRate(sr),
		volume:     cfg.Volume,
		enabled:    cfg.Enabled,
		musicPath:  cfg.MusicPath,
		mixer:      &beep.Mixer{},
	}
}

// Init opens the speaker and starts the mixer. Music that fails to load is
// logged and skipped.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized || !p.enabled {
		return nil
	}

	// 100ms buffer trades latency for fewer underruns in a busy terminal
	if err := speaker.Init(p.sampleRate, p.sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}

	if p.musicPath != "" {
		m, err := LoadMusic(p.musicPath, p.sampleRate, p.volume/2)
		if err != nil {
			log.Printf("⚠️ Background music disabled: %v", err)
		} else {
			p.music = m
			p.mixer.Add(m)
		}
	}

	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Play queues one cue.
func (p *Player) Play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playLocked(c)
}

// PlayReport queues every cue the tick produced.
func (p *Player) PlayReport(report game.TickReport) {
	cues := CuesFor(report)
	if len(cues) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range cues {
		p.playLocked(c)
	}
}

func (p *Player) playLocked(c Cue) {
	if !p.initialized {
		return
	}
	s, err := c.streamer(p.sampleRate, p.volume)
	if err != nil || s == nil {
		return
	}

	speaker.Lock()
	defer speaker.Unlock()
	active := p.mixer.Len()
	if p.music != nil {
		active--
	}
	if active >= MaxActiveCues {
		return
	}
	p.mixer.Add(s)
}

// Close silences everything. The speaker stays open for the process lifetime.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()

	if p.music != nil {
		p.music.Close()
		p.music = nil
	}
	p.initialized = false
}

// linearToLog2 converts a 0..1 gain to the exponent effects.Volume expects.
func linearToLog2(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log2(v)
}
