// Package render draws simulation snapshots with fogleman/gg.
//
// Rendering reads immutable game.State values only, so it can run on any
// goroutine while the engine keeps ticking.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"cosmic-adventure/internal/game"
)

// HUD geometry
const (
	ScoreX = 10
	ScoreY = 20

	LifeBarX      = 10
	LifeBarY      = 30
	LifeBarWidth  = 200 // full life, so 2px per life point at MaxLife 100
	LifeBarHeight = 20
)

var (
	colorBackground = color.RGBA{0, 0, 0, 255}
	colorPlayer     = color.RGBA{255, 255, 255, 255}
	colorProjectile = color.RGBA{255, 255, 0, 255}
	colorAdversary  = color.RGBA{255, 0, 0, 255}
	colorLife       = color.RGBA{0, 128, 0, 255}
	colorHUD        = color.RGBA{255, 255, 255, 255}
	colorOverlay    = color.RGBA{0, 0, 0, 160}
)

// SpriteSource supplies sprites without blocking. A nil image means "not
// ready yet" and the renderer draws the fallback shape instead.
type SpriteSource interface {
	GetOrLoad(name string, w, h int) image.Image
}

// Config holds canvas and sprite settings.
type Config struct {
	Width        int
	Height       int
	PlayerSprite string
	FoeSprites   []string // indexed by adversary variant
	FontPath     string   // empty searches common locations
}

// Renderer turns a State into an image.
type Renderer struct {
	cfg     Config
	tuning  game.Tuning
	sprites SpriteSource

	// Fonts are loaded once; opentype faces are not safe for concurrent use
	mu        sync.Mutex
	fontHUD   font.Face
	fontTitle font.Face
}

// NewRenderer creates a renderer. sprites may be nil.
func NewRenderer(cfg Config, tuning game.Tuning, sprites SpriteSource) *Renderer {
	if cfg.Width <= 0 {
		cfg.Width = int(tuning.PlayAreaWidth)
	}
	if cfg.Height <= 0 {
		cfg.Height = int(tuning.PlayAreaHeight)
	}
	r := &Renderer{cfg: cfg, tuning: tuning, sprites: sprites}
	r.loadFonts()
	return r
}

// loadFonts loads fonts once at startup to avoid per-frame file I/O
func (r *Renderer) loadFonts() {
	r.fontHUD = basicfont.Face7x13
	r.fontTitle = basicfont.Face7x13

	fontPath := r.cfg.FontPath
	if fontPath == "" {
		fontPath = findFont()
	}
	if fontPath == "" {
		log.Println("⚠️ No font found, using built-in bitmap font")
		return
	}

	data, err := os.ReadFile(fontPath)
	if err != nil {
		log.Printf("⚠️ Failed to read font file: %v", err)
		return
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		log.Printf("⚠️ Failed to parse font: %v", err)
		return
	}

	hud, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: 20, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("⚠️ Failed to create HUD font face: %v", err)
		return
	}
	title, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: 48, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("⚠️ Failed to create title font face: %v", err)
		return
	}
	r.fontHUD, r.fontTitle = hud, title
	log.Printf("✅ Fonts loaded from: %s", fontPath)
}

// Size returns the canvas size.
func (r *Renderer) Size() (int, int) {
	return r.cfg.Width, r.cfg.Height
}

// Render draws one frame.
func (r *Renderer) Render(s game.State) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(r.cfg.Width, r.cfg.Height)

	dc.SetColor(colorBackground)
	dc.Clear()

	r.drawPlayer(dc, s.Player)
	r.drawProjectiles(dc, s.Projectiles)
	r.drawAdversaries(dc, s.Adversaries)
	r.drawHUD(dc, s)
	if s.IsGameOver() {
		r.drawGameOver(dc, s)
	}

	return dc.Image()
}

// EncodePNG renders s and writes it as PNG.
func (r *Renderer) EncodePNG(w io.Writer, s game.State) error {
	if err := png.Encode(w, r.Render(s)); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

func (r *Renderer) drawPlayer(dc *gg.Context, p game.Player) {
	if img := r.sprite(r.cfg.PlayerSprite, p.Width, p.Height); img != nil {
		dc.DrawImage(img, int(p.X), int(p.Y))
		return
	}
	dc.SetColor(colorPlayer)
	dc.DrawRectangle(p.X, p.Y, p.Width, p.Height)
	dc.Fill()
}

func (r *Renderer) drawProjectiles(dc *gg.Context, ps []game.Projectile) {
	dc.SetColor(colorProjectile)
	for _, p := range ps {
		dc.DrawRectangle(p.X, p.Y, r.tuning.ProjectileWidth, r.tuning.ProjectileHeight)
	}
	dc.Fill()
}

func (r *Renderer) drawAdversaries(dc *gg.Context, as []game.Adversary) {
	size := r.tuning.AdversarySize
	for _, a := range as {
		name := ""
		if a.Variant >= 0 && a.Variant < len(r.cfg.FoeSprites) {
			name = r.cfg.FoeSprites[a.Variant]
		}
		if img := r.sprite(name, size, size); img != nil {
			dc.DrawImage(img, int(a.X), int(a.Y))
			continue
		}
		// Fallback: red square when the sprite is unavailable
		dc.SetColor(colorAdversary)
		dc.DrawRectangle(a.X, a.Y, size, size)
		dc.Fill()
	}
}

func (r *Renderer) drawHUD(dc *gg.Context, s game.State) {
	dc.SetFontFace(r.fontHUD)
	dc.SetColor(colorHUD)
	dc.DrawString(fmt.Sprintf("Score: %d", s.Score), ScoreX, ScoreY)

	fill := 0.0
	if r.tuning.MaxLife > 0 {
		fill = float64(s.Player.Life) * LifeBarWidth / float64(r.tuning.MaxLife)
	}
	if fill > 0 {
		dc.SetColor(colorLife)
		dc.DrawRectangle(LifeBarX, LifeBarY, fill, LifeBarHeight)
		dc.Fill()
	}

	dc.SetColor(colorHUD)
	dc.SetLineWidth(1)
	dc.DrawRectangle(LifeBarX, LifeBarY, LifeBarWidth, LifeBarHeight)
	dc.Stroke()
}

func (r *Renderer) drawGameOver(dc *gg.Context, s game.State) {
	w, h := float64(r.cfg.Width), float64(r.cfg.Height)

	dc.SetColor(colorOverlay)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetColor(colorHUD)
	dc.SetFontFace(r.fontTitle)
	dc.DrawStringAnchored("GAME OVER", w/2, h/2, 0.5, 0.5)
	dc.SetFontFace(r.fontHUD)
	dc.DrawStringAnchored(fmt.Sprintf("Final score: %d", s.Score), w/2, h/2+40, 0.5, 0.5)
}

func (r *Renderer) sprite(name string, w, h float64) image.Image {
	if r.sprites == nil || name == "" {
		return nil
	}
	return r.sprites.GetOrLoad(name, int(w), int(h))
}

// findFont returns the first font found in common locations
func findFont() string {
	paths := []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
		"C:\\Windows\\Fonts\\arial.ttf",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	matches, _ := filepath.Glob("*.ttf")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}
