// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for simulation, rendering and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cosmic-adventure/internal/game"
)

// =============================================================================
// VIDEO & CANVAS CONFIGURATION
// =============================================================================

// VideoConfig holds all rendering related settings.
// The canvas is larger than the play area; the strip on the right is HUD space.
type VideoConfig struct {
	Width             int           // Canvas width in pixels
	Height            int           // Canvas height in pixels
	BroadcastInterval time.Duration // How often WebSocket clients get a snapshot
}

// DefaultVideo returns the default video configuration.
func DefaultVideo() VideoConfig {
	return VideoConfig{
		Width:             500,
		Height:            500,
		BroadcastInterval: 100 * time.Millisecond, // 10 Hz is plenty for spectators
	}
}

// VideoFromEnv returns video configuration with environment variable overrides.
// Environment variables take precedence over defaults.
func VideoFromEnv() VideoConfig {
	cfg := DefaultVideo()

	if w := getEnvInt("CANVAS_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("CANVAS_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if ms := getEnvInt("BROADCAST_INTERVAL_MS", 0); ms > 0 {
		cfg.BroadcastInterval = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

// =============================================================================
// GAME CONFIGURATION
// =============================================================================

// GameConfig holds the simulation cadence and the tuning it runs with.
type GameConfig struct {
	TickInterval time.Duration
	Seed         int64 // 0 seeds from the clock
	Tuning       game.Tuning
}

// DefaultGame returns the reference simulation settings.
func DefaultGame() GameConfig {
	return GameConfig{
		TickInterval: game.DefaultTickInterval,
		Tuning:       game.DefaultTuning(),
	}
}

// GameFromEnv returns game configuration with environment variable overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if ms := getEnvInt("TICK_INTERVAL_MS", 0); ms > 0 {
		cfg.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if seed := getEnvInt64("GAME_SEED", 0); seed != 0 {
		cfg.Seed = seed
	}
	if v := getEnvFloat("SPAWN_CHANCE", -1); v >= 0 {
		cfg.Tuning.SpawnChance = v
	}
	if v := getEnvFloat("PLAYER_SPEED", 0); v > 0 {
		cfg.Tuning.PlayerSpeed = v
	}
	if v := getEnvFloat("PROJECTILE_SPEED", 0); v > 0 {
		cfg.Tuning.ProjectileSpeed = v
	}
	if v := getEnvFloat("ADVERSARY_SPEED", 0); v > 0 {
		cfg.Tuning.AdversarySpeed = v
	}
	if v := getEnvInt("MAX_LIFE", 0); v > 0 {
		cfg.Tuning.MaxLife = v
	}
	if v := getEnvInt("MAX_PROJECTILES", 0); v > 0 {
		cfg.Tuning.MaxProjectiles = v
	}
	if v := getEnvInt("MAX_ADVERSARIES", 0); v > 0 {
		cfg.Tuning.MaxAdversaries = v
	}

	return cfg
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds settings for the terminal front-end's sound cues.
type AudioConfig struct {
	SampleRate int     // Audio sample rate in Hz
	Volume     float64 // Master volume (0.0 to 1.0)
	Enabled    bool    // Whether sound cues are played
	MusicPath  string  // Optional OGG Vorbis background loop
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Volume:     0.15,
		Enabled:    true,
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("SOUND_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("SOUND_ENABLED") == "false" {
		cfg.Enabled = false
	}
	cfg.MusicPath = os.Getenv("MUSIC_PATH")

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int
	AllowedOrigins    []string // Extra CORS/WebSocket origins besides localhost
	RequestsPerSecond float64  // Per-IP HTTP rate limit
	Burst             int
	MaxWSPerIP        int
	AdminToken        string // Bearer token for session control; empty leaves it open
	TrustProxy        bool   // Take client IPs from X-Forwarded-For/X-Real-IP
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:              3000,
		RequestsPerSecond: 10,
		Burst:             20,
		MaxWSPerIP:        5,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if origins := getEnvList("ALLOWED_ORIGINS"); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	if rps := getEnvFloat("RATE_LIMIT_RPS", 0); rps > 0 {
		cfg.RequestsPerSecond = rps
	}
	if b := getEnvInt("RATE_LIMIT_BURST", 0); b > 0 {
		cfg.Burst = b
	}
	if n := getEnvInt("MAX_WS_PER_IP", 0); n > 0 {
		cfg.MaxWSPerIP = n
	}
	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")
	cfg.TrustProxy = os.Getenv("TRUST_PROXY") == "true"

	return cfg
}

// =============================================================================
// DEBUG SERVER CONFIGURATION
// =============================================================================

// DebugConfig configures the pprof/metrics server.
type DebugConfig struct {
	Enabled       bool
	ListenAddr    string // MUST stay on localhost in production
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultDebug returns safe defaults.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugFromEnv returns debug configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()

	if os.Getenv("DEBUG_SERVER") == "false" {
		cfg.Enabled = false
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	cfg.BasicAuthPass = os.Getenv("DEBUG_PASS")

	return cfg
}

// =============================================================================
// ASSET CONFIGURATION
// =============================================================================

// AssetConfig says where sprites come from.
type AssetConfig struct {
	Dir           string // Local directory, used when BaseURL is empty
	BaseURL       string // Remote prefix, e.g. a CDN
	PlayerSprite  string
	FoeSprites    []string // Indexed by adversary variant
	MaxConcurrent int      // Parallel loads
	FetchTimeout  time.Duration
}

// DefaultAssets returns the reference sprite set.
func DefaultAssets() AssetConfig {
	return AssetConfig{
		Dir:          "assets",
		PlayerSprite: "fighterJet.jpg",
		FoeSprites: []string{
			"ast1.jpg", "ast2.jpg", "ast3.jpg",
			"ast4.jpg", "ast5.jpg", "ast6.jpg",
		},
		MaxConcurrent: 4,
		FetchTimeout:  5 * time.Second,
	}
}

// AssetsFromEnv returns asset configuration with environment variable overrides.
func AssetsFromEnv() AssetConfig {
	cfg := DefaultAssets()

	if dir := os.Getenv("ASSET_DIR"); dir != "" {
		cfg.Dir = dir
	}
	cfg.BaseURL = strings.TrimRight(os.Getenv("ASSET_BASE_URL"), "/")

	return cfg
}

// =============================================================================
// EVENT LOG CONFIGURATION
// =============================================================================

// EventLogConfig controls the replay log.
type EventLogConfig struct {
	Path string // Empty keeps events in memory only
}

// EventLogFromEnv reads EVENT_LOG_PATH.
func EventLogFromEnv() EventLogConfig {
	return EventLogConfig{Path: os.Getenv("EVENT_LOG_PATH")}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Video    VideoConfig
	Game     GameConfig
	Audio    AudioConfig
	Server   ServerConfig
	Debug    DebugConfig
	Assets   AssetConfig
	EventLog EventLogConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Video:    VideoFromEnv(),
		Game:     GameFromEnv(),
		Audio:    AudioFromEnv(),
		Server:   ServerFromEnv(),
		Debug:    DebugFromEnv(),
		Assets:   AssetsFromEnv(),
		EventLog: EventLogFromEnv(),
	}
}

// Validate checks settings that would otherwise fail deep inside a component.
func (c AppConfig) Validate() error {
	if err := c.Game.Tuning.Validate(); err != nil {
		return fmt.Errorf("game tuning: %w", err)
	}
	if c.Video.Width < int(c.Game.Tuning.PlayAreaWidth) || c.Video.Height < int(c.Game.Tuning.PlayAreaHeight) {
		return fmt.Errorf("canvas %dx%d smaller than play area %vx%v",
			c.Video.Width, c.Video.Height, c.Game.Tuning.PlayAreaWidth, c.Game.Tuning.PlayAreaHeight)
	}
	if len(c.Assets.FoeSprites) < c.Game.Tuning.AdversaryVariants {
		return fmt.Errorf("%d adversary variants but only %d sprites",
			c.Game.Tuning.AdversaryVariants, len(c.Assets.FoeSprites))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("volume %v outside [0,1]", c.Audio.Volume)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
