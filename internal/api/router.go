package api

import (
	"io"
	"net/http"

	"cosmic-adventure/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the tick loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// GetSnapshot returns the latest immutable state
	GetSnapshot() game.State
	// Stats returns counters for /api/stats
	Stats() game.EngineStats
	// GetIntent returns the intent applied on the next tick
	GetIntent() game.Intent
	// SetIntent replaces the current intent; source is the client address
	SetIntent(source string, in game.Intent) error
	// Start, Stop and Reset control the session
	Start()
	Stop()
	Reset() game.State
	IsRunning() bool
	// Leaderboard may return nil
	Leaderboard() *game.Leaderboard
	// EventLog may return nil
	EventLog() *game.EventLog
}

// FrameRenderer draws snapshots for GET /api/frame.png.
type FrameRenderer interface {
	EncodePNG(w io.Writer, s game.State) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the simulation (required)
	Engine EngineInterface

	// Renderer is optional; without it /api/frame.png answers 503.
	Renderer FrameRenderer

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil.
	// If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// Origins decides CORS and WebSocket origins. Nil allows localhost only.
	Origins *OriginPolicy

	// AdminToken guards /api/session/*. Empty leaves it open.
	AdminToken string

	// TrustProxy takes the client IP from X-Forwarded-For/X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	engine      EngineInterface
	renderer    FrameRenderer
	rateLimiter *IPRateLimiter
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	origins := cfg.Origins
	if origins == nil {
		origins = NewOriginPolicy(nil)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins.CORSOrigins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	h := &routerHandlers{
		engine:      cfg.Engine,
		renderer:    cfg.Renderer,
		rateLimiter: rateLimiter,
	}

	r.Route("/api", func(r chi.Router) {
		// Read-only views
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/frame.png", h.handleGetFrame)

		// Player input
		r.Post("/input", h.handleInput)

		// Session control
		r.Route("/session", func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminToken))
			r.Post("/start", h.handleSessionStart)
			r.Post("/stop", h.handleSessionStop)
			r.Post("/reset", h.handleSessionReset)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/state", http.StatusFound)
	})

	return r
}
