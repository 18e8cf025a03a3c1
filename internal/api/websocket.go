package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"cosmic-adventure/internal/game"
	"cosmic-adventure/internal/input"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	// DefaultWSConnectionsPerIP applies when the hub is built without a limit
	DefaultWSConnectionsPerIP = 5

	// DefaultBroadcastInterval is how often snapshots go out
	DefaultBroadcastInterval = 100 * time.Millisecond

	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = wsPongWait * 9 / 10
	wsMaxMessageSize = 1 << 10
	wsSendBuffer     = 16
)

// wsMessage is the envelope used in both directions
type wsMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type keyMessage struct {
	Key  string `json:"key"`
	Down bool   `json:"down"`
}

// wsClient tracks one connection. Only writePump writes to conn.
type wsClient struct {
	conn *websocket.Conn
	ip   string
	send chan []byte
	keys *input.Tracker

	// last intent this client set; touched only by its read pump
	intent game.Intent
}

// WebSocketHub fans snapshots out to spectators and takes intents in.
type WebSocketHub struct {
	engine  EngineInterface
	origins *OriginPolicy

	clients    map[*wsClient]struct{}
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{} // closed when Run returns
	mu         sync.RWMutex

	upgrader  websocket.Upgrader
	wsLimiter *WebSocketRateLimiter
}

// NewWebSocketHub creates a hub. Nothing runs until Run is called.
func NewWebSocketHub(engine EngineInterface, origins *OriginPolicy, maxPerIP int) *WebSocketHub {
	if origins == nil {
		origins = NewOriginPolicy(nil)
	}
	if maxPerIP <= 0 {
		maxPerIP = DefaultWSConnectionsPerIP
	}
	h := &WebSocketHub{
		engine:     engine,
		origins:    origins,
		clients:    make(map[*wsClient]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
		wsLimiter:  NewWebSocketRateLimiter(maxPerIP),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if h.origins.Allowed(origin) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run services registration and broadcasts until stop is closed.
func (h *WebSocketHub) Run(stop <-chan struct{}) {
	defer close(h.done)
	for {
		select {
		case <-stop:
			h.mu.Lock()
			for c := range h.clients {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("📱 Client connected from %s (%d total)", c.ip, count)
			UpdateWSConnections(count)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.dropLocked(c)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("📱 Client disconnected (%d remaining)", count)
			UpdateWSConnections(count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow consumer; it will reconnect
					h.dropLocked(c)
				}
			}
			h.mu.Unlock()
			IncrementWSMessages("out")
		}
	}
}

func (h *WebSocketHub) dropLocked(c *wsClient) {
	delete(h.clients, c)
	close(c.send)
	h.wsLimiter.Release(c.ip)
}

// Broadcast queues a message for every connected client
func (h *WebSocketHub) Broadcast(event string, data interface{}) {
	msg, err := encodeMessage(event, data)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		// Channel full, skip (backpressure)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartBroadcastLoop sends game:state every interval while anyone listens,
// plus game:over once per finished session.
func (h *WebSocketHub) StartBroadcastLoop(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		announced := false
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}

			s := h.engine.GetSnapshot()
			if !s.IsGameOver() {
				announced = false
			}
			if h.ClientCount() == 0 {
				continue
			}

			h.Broadcast("game:state", s.ToSnapshot())
			if s.IsGameOver() && !announced {
				announced = true
				h.Broadcast("game:over", map[string]interface{}{
					"score": s.Score,
					"tick":  s.Tick,
				})
			}
		}
	}()
}

// HandleWebSocket upgrades a connection after the DoS checks.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	c := &wsClient{
		conn: conn,
		ip:   ip,
		send: make(chan []byte, wsSendBuffer),
		keys: input.NewTracker(0),
	}

	// Greet with the current state so the client does not wait a full interval
	if msg, err := encodeMessage("game:state", h.engine.GetSnapshot().ToSnapshot()); err == nil {
		c.send <- msg
	}

	select {
	case h.register <- c:
	case <-h.done:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump applies client input until the connection drops.
func (h *WebSocketHub) readPump(c *wsClient) {
	defer func() {
		// An intent left by a vanished client would steer forever
		if c.intent != game.NoIntent {
			h.engine.SetIntent(c.ip, game.NoIntent)
		}
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		IncrementWSMessages("in")

		if err := h.handleClientMessage(c, raw); err != nil {
			h.reply(c, "error", map[string]string{"error": err.Error()})
		}
	}
}

func (h *WebSocketHub) handleClientMessage(c *wsClient, raw []byte) error {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return &game.InvalidInputError{Reason: "malformed message", Err: err}
	}

	switch msg.Event {
	case "input":
		in, err := game.ParseIntent(msg.Data)
		if err != nil {
			return err
		}
		return h.setIntent(c, in)

	case "key":
		var km keyMessage
		if err := json.Unmarshal(msg.Data, &km); err != nil {
			return &game.InvalidInputError{Reason: "malformed key event", Err: err}
		}
		k := input.KeyFromName(km.Key)
		if k == input.KeyNone {
			// Keys the game does not use are ignored, like a browser would
			return nil
		}
		if km.Down {
			c.keys.KeyDown(k)
		} else {
			c.keys.KeyUp(k)
		}
		return h.setIntent(c, c.keys.Intent(time.Now()))

	default:
		return &game.InvalidInputError{Reason: "unknown event " + msg.Event}
	}
}

func (h *WebSocketHub) setIntent(c *wsClient, in game.Intent) error {
	if err := h.engine.SetIntent(c.ip, in); err != nil {
		return err
	}
	c.intent = in
	return nil
}

// reply queues a message for one client without blocking the read loop.
func (h *WebSocketHub) reply(c *wsClient, event string, data interface{}) {
	msg, err := encodeMessage(event, data)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// writePump is the only writer on c.conn.
func (h *WebSocketHub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encodeMessage(event string, data interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
}
