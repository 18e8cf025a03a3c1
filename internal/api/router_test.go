package api

import (
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cosmic-adventure/internal/game"
)

// highLimits keeps the rate limiter out of the way
var highLimits = &RateLimitConfig{
	RequestsPerSecond: 1000,
	Burst:             1000,
	CleanupInterval:   time.Hour,
}

func newTestServer(t *testing.T, cfg RouterConfig) *httptest.Server {
	t.Helper()
	if cfg.RateLimitConfig == nil && cfg.RateLimiter == nil {
		cfg.RateLimitConfig = highLimits
	}
	cfg.DisableLogging = true
	ts := httptest.NewServer(NewRouter(cfg))
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, url, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

// ============================================================================
// Router Purity Tests
// ============================================================================

func TestNewRouterHasNoSideEffects(t *testing.T) {
	before := runtime.NumGoroutine()

	router := NewRouter(RouterConfig{
		Engine:          newMockEngine(),
		RateLimitConfig: highLimits,
		DisableLogging:  true,
	})
	if router == nil {
		t.Fatal("router should not be nil")
	}

	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("NewRouter started %d goroutines", after-before)
	}
}

// ============================================================================
// Read-only endpoints
// ============================================================================

func TestGetState(t *testing.T) {
	eng := newMockEngine()
	s := game.NewState()
	s.Tick = 42
	s.Score = 30
	s.Adversaries = []game.Adversary{{ID: 7, X: 100, Y: 50, Speed: 2, Variant: 3}}
	eng.setState(s)

	ts := newTestServer(t, RouterConfig{Engine: eng})
	resp := doRequest(t, http.MethodGet, ts.URL+"/api/state", "", nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var snap game.GameSnapshot
	decodeBody(t, resp, &snap)
	if snap.Tick != 42 || snap.Score != 30 || snap.Life != 100 || snap.IsGameOver {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Adversaries) != 1 || snap.Adversaries[0].Variant != 3 {
		t.Errorf("adversaries = %+v", snap.Adversaries)
	}
}

func TestGetStats(t *testing.T) {
	eng := newMockEngine()
	eng.Start()
	eng.SetIntent("", game.MoveUp)

	ts := newTestServer(t, RouterConfig{Engine: eng})
	resp := doRequest(t, http.MethodGet, ts.URL+"/api/stats", "", nil)

	var body struct {
		Engine game.EngineStats   `json:"engine"`
		Intent game.IntentMessage `json:"intent"`
		Rate   map[string]uint64  `json:"rateLimit"`
		Log    map[string]any     `json:"eventLog"`
	}
	decodeBody(t, resp, &body)

	if !body.Engine.Running || body.Engine.Life != 100 {
		t.Errorf("engine stats = %+v", body.Engine)
	}
	if !body.Intent.MoveUp || body.Intent.MoveDown {
		t.Errorf("intent = %+v", body.Intent)
	}
	if body.Rate["allowed"] == 0 {
		t.Error("rate limiter stats missing")
	}
	if body.Log != nil {
		t.Error("event log stats should be absent without a log")
	}
}

func TestGetLeaderboard(t *testing.T) {
	eng := newMockEngine()
	eng.leaderboard.Record(1, 30, 400)
	eng.leaderboard.Record(2, 90, 900)
	eng.leaderboard.Record(3, 60, 700)

	ts := newTestServer(t, RouterConfig{Engine: eng})

	var body struct {
		Entries []game.LeaderboardEntry `json:"entries"`
		Count   int                     `json:"count"`
	}
	decodeBody(t, doRequest(t, http.MethodGet, ts.URL+"/api/leaderboard?limit=2", "", nil), &body)

	if body.Count != 2 || len(body.Entries) != 2 {
		t.Fatalf("count = %d, entries = %d, want 2", body.Count, len(body.Entries))
	}
	if body.Entries[0].Score != 90 || body.Entries[0].Rank != 1 || body.Entries[1].Session != 3 {
		t.Errorf("entries = %+v", body.Entries)
	}

	for _, bad := range []string{"0", "-1", "ten"} {
		resp := doRequest(t, http.MethodGet, ts.URL+"/api/leaderboard?limit="+bad, "", nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", bad, resp.StatusCode)
		}
	}
}

type stubRenderer struct{ calls atomic.Int32 }

func (r *stubRenderer) EncodePNG(w io.Writer, s game.State) error {
	r.calls.Add(1)
	return png.Encode(w, image.NewRGBA(image.Rect(0, 0, 4, 4)))
}

func TestGetFrame(t *testing.T) {
	t.Run("without renderer", func(t *testing.T) {
		ts := newTestServer(t, RouterConfig{Engine: newMockEngine()})
		resp := doRequest(t, http.MethodGet, ts.URL+"/api/frame.png", "", nil)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", resp.StatusCode)
		}
	})

	t.Run("with renderer", func(t *testing.T) {
		r := &stubRenderer{}
		ts := newTestServer(t, RouterConfig{Engine: newMockEngine(), Renderer: r})
		resp := doRequest(t, http.MethodGet, ts.URL+"/api/frame.png", "", nil)

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("content type = %q", ct)
		}
		if _, err := png.Decode(resp.Body); err != nil {
			t.Errorf("body is not a PNG: %v", err)
		}
		if n := r.calls.Load(); n != 1 {
			t.Errorf("renderer calls = %d, want 1", n)
		}
	})
}

// ============================================================================
// Input
// ============================================================================

func TestPostInput(t *testing.T) {
	eng := newMockEngine()
	ts := newTestServer(t, RouterConfig{Engine: eng, TrustProxy: true})

	resp := doRequest(t, http.MethodPost, ts.URL+"/api/input",
		`{"moveLeft":true,"firing":true}`, http.Header{"X-Real-Ip": {"10.0.0.9"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := eng.GetIntent(); got != game.MoveLeft|game.Fire {
		t.Errorf("intent = %s, want L---F", got)
	}
	if src := eng.source(); src != "10.0.0.9" {
		t.Errorf("source = %q, want client IP", src)
	}
}

func TestPostInputRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty", "", http.StatusBadRequest},
		{"not an object", `[true]`, http.StatusBadRequest},
		{"unknown field", `{"moveLeft":true,"teleport":true}`, http.StatusBadRequest},
		{"non-boolean", `{"moveLeft":1}`, http.StatusBadRequest},
		{"trailing data", `{"moveLeft":true}{}`, http.StatusBadRequest},
		{"too large", `{"moveLeft":true` + strings.Repeat(" ", maxIntentBody) + `}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newMockEngine()
			eng.SetIntent("", game.MoveDown)
			ts := newTestServer(t, RouterConfig{Engine: eng})

			resp := doRequest(t, http.MethodPost, ts.URL+"/api/input", tt.body, nil)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			var body map[string]string
			decodeBody(t, resp, &body)
			if body["error"] == "" {
				t.Error("error message missing")
			}
			if got := eng.GetIntent(); got != game.MoveDown {
				t.Errorf("intent changed to %s", got)
			}
		})
	}
}

// ============================================================================
// Session control
// ============================================================================

func TestSessionControl(t *testing.T) {
	eng := newMockEngine()
	ts := newTestServer(t, RouterConfig{Engine: eng})

	var status struct {
		Running  bool              `json:"running"`
		Snapshot game.GameSnapshot `json:"snapshot"`
	}

	decodeBody(t, doRequest(t, http.MethodPost, ts.URL+"/api/session/start", "", nil), &status)
	if !status.Running || !eng.IsRunning() {
		t.Error("start should run the engine")
	}

	over := game.NewState()
	over.Player.Life = 0
	over.Score = 50
	eng.setState(over)

	decodeBody(t, doRequest(t, http.MethodPost, ts.URL+"/api/session/stop", "", nil), &status)
	if status.Running || eng.IsRunning() {
		t.Error("stop should halt the engine")
	}
	if !status.Snapshot.IsGameOver || status.Snapshot.Score != 50 {
		t.Errorf("stopped snapshot = %+v", status.Snapshot)
	}

	decodeBody(t, doRequest(t, http.MethodPost, ts.URL+"/api/session/reset", "", nil), &status)
	if status.Snapshot.IsGameOver || status.Snapshot.Life != 100 || status.Snapshot.Score != 0 {
		t.Errorf("reset snapshot = %+v", status.Snapshot)
	}
	if n := eng.Stats().Sessions; n != 2 {
		t.Errorf("sessions = %d, want 2", n)
	}

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/session/start", "", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET start: status = %d, want 405", resp.StatusCode)
	}
}

func TestSessionRequiresAdminToken(t *testing.T) {
	eng := newMockEngine()
	ts := newTestServer(t, RouterConfig{Engine: eng, AdminToken: "s3cret"})

	tests := []struct {
		name   string
		header http.Header
		want   int
	}{
		{"no header", nil, http.StatusUnauthorized},
		{"wrong token", http.Header{"Authorization": {"Bearer nope"}}, http.StatusUnauthorized},
		{"wrong scheme", http.Header{"Authorization": {"Basic s3cret"}}, http.StatusUnauthorized},
		{"valid", http.Header{"Authorization": {"Bearer s3cret"}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, ts.URL+"/api/session/start", "", tt.header)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	// Read-only routes stay public
	resp := doRequest(t, http.MethodGet, ts.URL+"/api/state", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("state: status = %d, want 200", resp.StatusCode)
	}
}

// ============================================================================
// Middleware
// ============================================================================

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 0.001,
		Burst:             2,
		CleanupInterval:   time.Hour,
	})
	defer limiter.Stop()

	ts := newTestServer(t, RouterConfig{Engine: newMockEngine(), RateLimiter: limiter, TrustProxy: true})

	for i := 0; i < 2; i++ {
		if resp := doRequest(t, http.MethodGet, ts.URL+"/api/state", "", nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, resp.StatusCode)
		}
	}

	resp := doRequest(t, http.MethodGet, ts.URL+"/api/state", "", nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}

	// A different client has its own bucket
	resp = doRequest(t, http.MethodGet, ts.URL+"/api/state", "", http.Header{"X-Forwarded-For": {"203.0.113.5"}})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", resp.StatusCode)
	}

	if stats := limiter.GetStats(); stats["rejected"] != 1 || stats["allowed"] != 3 {
		t.Errorf("stats = %v", stats)
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, RouterConfig{
		Engine:  newMockEngine(),
		Origins: NewOriginPolicy([]string{"https://play.example"}),
	})

	tests := []struct {
		origin string
		want   string
	}{
		{"http://localhost:5173", "http://localhost:5173"},
		{"https://play.example", "https://play.example"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			resp := doRequest(t, http.MethodOptions, ts.URL+"/api/input", "", http.Header{
				"Origin":                        {tt.origin},
				"Access-Control-Request-Method": {"POST"},
			})
			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("allow origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRootRedirects(t *testing.T) {
	ts := newTestServer(t, RouterConfig{Engine: newMockEngine()})

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/api/state" {
		t.Errorf("status = %d, location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}
