package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"cosmic-adventure/internal/game"
)

// maxIntentBody bounds POST /api/input; an intent is five booleans.
const maxIntentBody = 1 << 10

// Handler methods for routerHandlers, shared by NewRouter and Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetSnapshot().ToSnapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"engine": h.engine.Stats(),
		"intent": h.engine.GetIntent().Message(),
	}
	if el := h.engine.EventLog(); el != nil {
		stats["eventLog"] = el.GetStats()
	}
	if h.rateLimiter != nil {
		stats["rateLimit"] = h.rateLimiter.GetStats()
	}
	writeJSON(w, stats)
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := game.DefaultLeaderboardSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries := []game.LeaderboardEntry{}
	if lb := h.engine.Leaderboard(); lb != nil {
		entries = append(entries, lb.Top(limit)...)
	}
	writeJSON(w, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "rendering disabled", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := h.renderer.EncodePNG(&buf, h.engine.GetSnapshot()); err != nil {
		log.Printf("⚠️ Frame render failed: %v", err)
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	RecordRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIntentBody+1))
	if err != nil {
		writeError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxIntentBody {
		writeError(w, "intent too large", http.StatusRequestEntityTooLarge)
		return
	}

	in, err := game.ParseIntent(body)
	if err == nil {
		err = h.engine.SetIntent(GetClientIP(r), in)
	}
	var invalid *game.InvalidInputError
	if errors.As(err, &invalid) {
		writeError(w, invalid.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"intent":  in.Message(),
	})
}

func (h *routerHandlers) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	h.engine.Start()
	writeJSON(w, h.sessionStatus())
}

func (h *routerHandlers) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	h.engine.Stop()
	writeJSON(w, h.sessionStatus())
}

func (h *routerHandlers) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	h.engine.Reset()
	writeJSON(w, h.sessionStatus())
}

func (h *routerHandlers) sessionStatus() map[string]interface{} {
	return map[string]interface{}{
		"running":  h.engine.IsRunning(),
		"snapshot": h.engine.GetSnapshot().ToSnapshot(),
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
