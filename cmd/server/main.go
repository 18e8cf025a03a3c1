package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cosmic-adventure/internal/api"
	"cosmic-adventure/internal/asset"
	"cosmic-adventure/internal/config"
	"cosmic-adventure/internal/game"
	"cosmic-adventure/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🚀 ================================")
	log.Println("🚀  COSMIC ADVENTURE - GO ENGINE")
	log.Println("🚀 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	gameCfg := appConfig.Game
	videoCfg := appConfig.Video
	serverCfg := appConfig.Server

	log.Printf("🎮 Config: tick %v, spawn chance %.3f, life %d, canvas %dx%d",
		gameCfg.TickInterval, gameCfg.Tuning.SpawnChance, gameCfg.Tuning.MaxLife, videoCfg.Width, videoCfg.Height)

	engine := game.NewEngine(game.EngineConfig{
		TickInterval: gameCfg.TickInterval,
		Tuning:       gameCfg.Tuning,
		Seed:         gameCfg.Seed,
	})

	// Metrics on every tick; the event log is polled less often
	engine.SetCallbacks(
		func(s game.State, report game.TickReport, elapsed time.Duration) {
			api.RecordTick(s, report, elapsed)
		},
		func(s game.State) {
			api.RecordGameOver()
			log.Printf("💀 Game over at tick %d with score %d", s.Tick, s.Score)
		},
	)

	if path := appConfig.EventLog.Path; path != "" {
		if err := engine.StartEventLog(path); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
		} else {
			log.Printf("📝 Event log: %s", path)
		}
	}

	if err := api.StartDebugServer(appConfig.Debug); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	// Sprites load in the background; frames use fallback shapes until then
	assetCfg := appConfig.Assets
	sprites := asset.NewCache(asset.Config{
		Dir:           assetCfg.Dir,
		BaseURL:       assetCfg.BaseURL,
		MaxConcurrent: assetCfg.MaxConcurrent,
		FetchTimeout:  assetCfg.FetchTimeout,
	})
	tuning := engine.Tuning()
	sprites.Preload([]string{assetCfg.PlayerSprite}, int(tuning.PlayerWidth), int(tuning.PlayerHeight))
	sprites.Preload(assetCfg.FoeSprites, int(tuning.AdversarySize), int(tuning.AdversarySize))

	renderer := render.NewRenderer(render.Config{
		Width:        videoCfg.Width,
		Height:       videoCfg.Height,
		PlayerSprite: assetCfg.PlayerSprite,
		FoeSprites:   assetCfg.FoeSprites,
	}, tuning, sprites)

	server := api.NewServer(engine, api.ServerOptions{
		Server:            serverCfg,
		BroadcastInterval: videoCfg.BroadcastInterval,
		Renderer:          renderer,
	})

	if serverCfg.AdminToken == "" {
		log.Println("⚠️ Session control is open (set ADMIN_TOKEN to protect it)")
	} else {
		log.Println("🔐 Session control requires ADMIN_TOKEN")
	}

	engine.Start()
	log.Println("✅ Game Engine started")

	stopStats := make(chan struct{})
	go pollEventLogStats(engine, stopStats)

	// Start API server in goroutine
	go func() {
		if err := server.Start(":" + strconv.Itoa(serverCfg.Port)); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	close(stopStats)
	engine.Stop()
	engine.StopEventLog()

	final := engine.GetSnapshot()
	log.Printf("📊 Final tick %d, score %d, life %d", final.Tick, final.Score, final.Player.Life)
	if best, ok := engine.Leaderboard().Best(); ok {
		log.Printf("🏆 Best session: #%d with %d points", best.Session, best.Score)
	}
	log.Println("👋 Goodbye!")
}

func pollEventLogStats(engine *game.Engine, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			el := engine.EventLog()
			api.UpdateEventLogStats(el.GetTotalCount(), el.GetDroppedCount())
		}
	}
}
