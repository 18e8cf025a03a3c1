package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"cosmic-adventure/internal/config"

	"github.com/go-chi/chi/v5"
)

// ServerOptions carries what the server needs besides the engine.
type ServerOptions struct {
	Server            config.ServerConfig
	BroadcastInterval time.Duration
	Renderer          FrameRenderer
	DisableLogging    bool
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the WebSocket hub for real-time updates.
type Server struct {
	engine      EngineInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	interval    time.Duration

	mu         sync.Mutex
	httpServer *http.Server
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewServer creates the API server.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine EngineInterface, opts ServerOptions) *Server {
	origins := NewOriginPolicy(opts.Server.AllowedOrigins)

	s := &Server{
		engine: engine,
		rateLimiter: NewIPRateLimiter(RateLimitConfig{
			RequestsPerSecond: opts.Server.RequestsPerSecond,
			Burst:             opts.Server.Burst,
		}),
		wsHub:    NewWebSocketHub(engine, origins, opts.Server.MaxWSPerIP),
		interval: opts.BroadcastInterval,
		stopChan: make(chan struct{}),
	}

	s.router = NewRouter(RouterConfig{
		Engine:         engine,
		Renderer:       opts.Renderer,
		RateLimiter:    s.rateLimiter,
		Origins:        origins,
		AdminToken:     opts.Server.AdminToken,
		TrustProxy:     opts.Server.TrustProxy,
		DisableLogging: opts.DisableLogging,
	})

	// The WebSocket route needs the hub instance, so it lives outside NewRouter
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Start starts the background workers and serves until Shutdown.
// This is the ONLY method that starts goroutines or opens network listeners.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run(s.stopChan)
	s.wsHub.StartBroadcastLoop(s.interval, s.stopChan)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🚀 Live state: http://localhost%s/api/state", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops the listener and the background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.rateLimiter.Stop()
	})
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
