// Command terminal plays the simulation locally in a terminal with sound cues.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"

	"cosmic-adventure/internal/audio"
	"cosmic-adventure/internal/config"
	"cosmic-adventure/internal/game"
	"cosmic-adventure/internal/input"
)

const frameInterval = 30 * time.Millisecond

// mode is the screen the app shows.
type mode uint8

const (
	modeTitle mode = iota
	modePlaying
)

type app struct {
	screen tcell.Screen // nil in tests
	engine *game.Engine
	keys   *input.Tracker
	sound  *audio.Player
	view   view
	mode   mode
}

func newApp(screen tcell.Screen, engine *game.Engine, sound *audio.Player) *app {
	engine.SetCallbacks(func(_ game.State, report game.TickReport, _ time.Duration) {
		sound.PlayReport(report)
	}, nil)

	return &app{
		screen: screen,
		engine: engine,
		keys:   input.NewTracker(input.DefaultHoldTimeout),
		sound:  sound,
		view:   view{tuning: engine.Tuning()},
		mode:   modeTitle,
	}
}

// keyFor maps a terminal key event to a game control.
func keyFor(ev *tcell.EventKey) input.Key {
	switch ev.Key() {
	case tcell.KeyLeft:
		return input.KeyLeft
	case tcell.KeyRight:
		return input.KeyRight
	case tcell.KeyUp:
		return input.KeyUp
	case tcell.KeyDown:
		return input.KeyDown
	case tcell.KeyRune:
		return input.KeyFromName(string(ev.Rune()))
	}
	return input.KeyNone
}

// play leaves the title screen with a fresh session.
func (a *app) play() {
	a.keys.Reset()
	// Start resets a finished session itself; an abandoned one is reset here
	if s := a.engine.GetSnapshot(); s.Tick > 0 && !s.IsGameOver() {
		a.engine.Reset()
	}
	a.engine.Start()
	a.mode = modePlaying
}

// title stops the session and shows the title screen.
func (a *app) title() {
	a.engine.Stop()
	a.keys.Reset()
	a.mode = modeTitle
}

// handleEvent returns false when the user asked to quit.
func (a *app) handleEvent(ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if a.mode == modeTitle {
			return a.handleTitleKey(ev)
		}
		return a.handlePlayKey(ev, now)

	case *tcell.EventResize:
		if a.screen != nil {
			a.screen.Sync()
		}
	}
	return true
}

func (a *app) handleTitleKey(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyEscape:
		return false
	case ev.Key() == tcell.KeyEnter, ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
		a.play()
	case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
		return false
	}
	return true
}

func (a *app) handlePlayKey(ev *tcell.EventKey, now time.Time) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.title()
		return true
	case tcell.KeyEnter:
		if a.engine.GetSnapshot().IsGameOver() {
			a.title()
		}
		return true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return false
		case 'r', 'R':
			a.keys.Reset()
			a.engine.Reset()
			a.engine.Start()
			return true
		}
	}
	// Terminals send no key-up, so each press holds the key briefly
	a.keys.Press(keyFor(ev), now)
	return true
}

// frame draws the current mode onto c.
func (a *app) frame(c canvas, now time.Time) {
	if a.mode == modeTitle {
		best, ok := a.engine.Leaderboard().Best()
		a.view.title(c, best, ok)
		return
	}
	if err := a.engine.SetIntent("", a.keys.Intent(now)); err != nil {
		log.Printf("⚠️ %v", err)
	}
	a.view.draw(c, a.engine.GetSnapshot())
}

func (a *app) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			if !a.handleEvent(ev, time.Now()) {
				return
			}

		case now := <-ticker.C:
			a.screen.Clear()
			a.frame(a.screen, now)
			a.screen.Show()
		}
	}
}

func (a *app) cleanup() {
	a.engine.Stop()
	a.sound.Close()
	a.screen.Fini()
}

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		_ = godotenv.Load(".env")
	}

	// The screen owns stdout; logs go to a file or nowhere
	if path := os.Getenv("TERMINAL_LOG"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			defer f.Close()
			log.SetOutput(f)
		}
	} else {
		log.SetOutput(io.Discard)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err == nil {
		err = screen.Init()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	screen.HideCursor()

	sound := audio.NewPlayer(cfg.Audio)
	if err := sound.Init(); err != nil {
		log.Printf("Audio initialization failed: %v", err)
	}

	a := newApp(screen, game.NewEngine(game.EngineConfig{
		TickInterval: cfg.Game.TickInterval,
		Tuning:       cfg.Game.Tuning,
		Seed:         cfg.Game.Seed,
	}), sound)
	a.run()
	a.cleanup()

	s := a.engine.GetSnapshot()
	fmt.Printf("Final score %d at tick %d\n", s.Score, s.Tick)
	if best, ok := a.engine.Leaderboard().Best(); ok {
		fmt.Printf("Best this run: %d\n", best.Score)
	}
}
