// Command replay re-runs a recorded event log and reports the final state.
//
//	replay events.jsonl [final.png]
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"cosmic-adventure/internal/game"
	"cosmic-adventure/internal/render"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: replay <events.jsonl> [final.png]")
		os.Exit(2)
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	events, err := game.ReadEvents(f)
	f.Close()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	final, err := game.Replay(events)
	if errors.Is(err, game.ErrReplayGap) {
		log.Printf("⚠️ Log has dropped ticks, stopping early: %v", err)
	} else if err != nil {
		log.Fatalf("❌ %v", err)
	}

	fmt.Printf("events:      %d\n", len(events))
	fmt.Printf("tick:        %d\n", final.Tick)
	fmt.Printf("score:       %d\n", final.Score)
	fmt.Printf("life:        %d\n", final.Player.Life)
	fmt.Printf("projectiles: %d\n", len(final.Projectiles))
	fmt.Printf("adversaries: %d\n", len(final.Adversaries))
	fmt.Printf("game over:   %v\n", final.IsGameOver())

	if len(os.Args) < 3 {
		return
	}
	out, err := os.Create(os.Args[2])
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer out.Close()

	r := render.NewRenderer(render.Config{}, game.SessionTuning(events), nil)
	if err := r.EncodePNG(out, final); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("🖼️ Final frame written to %s", os.Args[2])
}
