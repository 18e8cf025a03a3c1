// Package asset loads and caches sprite images for the renderer.
package asset

import (
	"fmt"
	"image"
	_ "image/gif"  // Support GIF format
	_ "image/jpeg" // Support JPEG format
	_ "image/png"  // Support PNG format
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Support WebP format
)

const (
	DefaultMaxConcurrent = 4
	DefaultFetchTimeout  = 5 * time.Second
	FailureBackoff       = 30 * time.Second // wait before retrying a failed sprite
	MaxSpriteBytes       = 8 << 20
)

// Config says where sprites are read from.
// BaseURL wins over Dir when both are set.
type Config struct {
	Dir           string
	BaseURL       string
	MaxConcurrent int
	FetchTimeout  time.Duration
}

// Cache stores decoded sprites scaled to their draw size.
// Loading is asynchronous; Get never blocks.
type Cache struct {
	mu      sync.RWMutex
	sprites map[string]*Sprite
	pending map[string]bool
	failed  map[string]time.Time

	dir     string
	baseURL string
	client  *http.Client
	sem     chan struct{} // Semaphore for concurrent loads
	loads   sync.WaitGroup
}

// Sprite holds a decoded image and metadata.
type Sprite struct {
	Image    image.Image
	Format   string
	LoadedAt time.Time
}

// NewCache creates an empty sprite cache.
func NewCache(cfg Config) *Cache {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	return &Cache{
		sprites: make(map[string]*Sprite),
		pending: make(map[string]bool),
		failed:  make(map[string]time.Time),
		dir:     cfg.Dir,
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		sem: make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Get returns a cached sprite or nil.
func (c *Cache) Get(name string) image.Image {
	if name == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.sprites[name]; ok {
		return s.Image
	}
	return nil
}

// GetOrLoad returns the cached sprite or starts loading it scaled to w×h.
// Never blocks - returns nil immediately if not cached.
func (c *Cache) GetOrLoad(name string, w, h int) image.Image {
	if img := c.Get(name); img != nil {
		return img
	}
	c.load(name, w, h)
	return nil
}

// Preload starts loading every named sprite scaled to w×h.
func (c *Cache) Preload(names []string, w, h int) {
	for _, name := range names {
		c.load(name, w, h)
	}
}

// Wait blocks until every load started so far has finished.
func (c *Cache) Wait() {
	c.loads.Wait()
}

// Failed reports whether the last attempt to load name failed recently.
func (c *Cache) Failed(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at, ok := c.failed[name]
	return ok && time.Since(at) < FailureBackoff
}

// Size returns the number of cached sprites.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sprites)
}

func (c *Cache) load(name string, w, h int) {
	if name == "" || w <= 0 || h <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sprites[name]; ok || c.pending[name] {
		return
	}
	if at, ok := c.failed[name]; ok && time.Since(at) < FailureBackoff {
		return
	}
	c.pending[name] = true
	c.loads.Add(1)
	go c.loadAsync(name, w, h)
}

// loadAsync reads, decodes and scales one sprite
func (c *Cache) loadAsync(name string, w, h int) {
	defer c.loads.Done()

	// Acquire semaphore
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	img, format, err := c.fetch(name)
	if err == nil {
		img = scale(img, w, h)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, name)

	if err != nil {
		c.failed[name] = time.Now()
		log.Printf("⚠️ Sprite %s unavailable, using fallback: %v", name, err)
		return
	}
	delete(c.failed, name)
	c.sprites[name] = &Sprite{Image: img, Format: format, LoadedAt: time.Now()}
	log.Printf("🖼️ Sprite %s cached (format: %s)", name, format)
}

func (c *Cache) fetch(name string) (image.Image, string, error) {
	rc, err := c.open(name)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	img, format, err := image.Decode(io.LimitReader(rc, MaxSpriteBytes))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", name, err)
	}
	return img, format, nil
}

func (c *Cache) open(name string) (io.ReadCloser, error) {
	if c.baseURL != "" {
		resp, err := c.client.Get(c.baseURL + "/" + name)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status %d", name, resp.StatusCode)
		}
		return resp.Body, nil
	}

	// Sprite names are config values, but keep them inside Dir anyway.
	f, err := os.Open(filepath.Join(c.dir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// scale resizes img to exactly w×h.
func scale(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
