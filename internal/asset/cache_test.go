package asset

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func encodeSquare(t *testing.T, size int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestCacheLoadsFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ship.png"), encodeSquare(t, 20, color.RGBA{0, 0, 255, 255}), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCache(Config{Dir: dir})
	if img := c.GetOrLoad("ship.png", 50, 50); img != nil {
		t.Error("first GetOrLoad should not block")
	}
	c.Wait()

	img := c.Get("ship.png")
	if img == nil {
		t.Fatal("sprite not cached")
	}
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("sprite bounds = %v, want 50x50", b)
	}
	r, g, bl, _ := img.At(25, 25).RGBA()
	if r != 0 || g != 0 || bl>>8 != 255 {
		t.Errorf("center pixel = (%d, %d, %d), want blue", r>>8, g>>8, bl>>8)
	}
	if c.Size() != 1 {
		t.Errorf("size = %d, want 1", c.Size())
	}
}

func TestCacheMissingSprite(t *testing.T) {
	c := NewCache(Config{Dir: t.TempDir()})
	c.Preload([]string{"nope.jpg"}, 50, 50)
	c.Wait()

	if c.Get("nope.jpg") != nil {
		t.Error("missing sprite should not be cached")
	}
	if !c.Failed("nope.jpg") {
		t.Error("missing sprite should be marked failed")
	}

	// Within the backoff no new load is started.
	c.GetOrLoad("nope.jpg", 50, 50)
	c.mu.RLock()
	pending := c.pending["nope.jpg"]
	c.mu.RUnlock()
	if pending {
		t.Error("failed sprite retried inside the backoff")
	}
}

func TestCacheUndecodable(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "junk.png"), []byte("not an image"), 0644)

	c := NewCache(Config{Dir: dir})
	c.Preload([]string{"junk.png"}, 10, 10)
	c.Wait()

	if c.Get("junk.png") != nil || !c.Failed("junk.png") {
		t.Error("undecodable sprite should fail")
	}
}

func TestCacheLoadsFromURL(t *testing.T) {
	body := encodeSquare(t, 50, color.RGBA{255, 0, 0, 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sprites/ast1.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	c := NewCache(Config{BaseURL: srv.URL + "/sprites"})
	c.Preload([]string{"ast1.png", "ast2.png"}, 50, 50)
	c.Wait()

	if c.Get("ast1.png") == nil {
		t.Error("ast1.png should be cached")
	}
	if c.Get("ast2.png") != nil || !c.Failed("ast2.png") {
		t.Error("ast2.png should have failed with 404")
	}
}

func TestCacheIgnoresBadRequests(t *testing.T) {
	c := NewCache(Config{Dir: t.TempDir()})
	c.GetOrLoad("", 50, 50)
	c.GetOrLoad("x.png", 0, 50)
	c.Wait()

	if c.Size() != 0 || c.Failed("x.png") {
		t.Error("invalid requests should be ignored")
	}
}
