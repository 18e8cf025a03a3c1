package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"cosmic-adventure/internal/game"
)

// grid is an in-memory canvas
type grid struct {
	w, h  int
	cells map[[2]int]rune
}

func newGrid(w, h int) *grid {
	return &grid{w: w, h: h, cells: make(map[[2]int]rune)}
}

func (g *grid) SetContent(x, y int, r rune, _ []rune, _ tcell.Style) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.cells[[2]int{x, y}] = r
}

func (g *grid) Size() (int, int) { return g.w, g.h }

func (g *grid) row(y int) string {
	var b strings.Builder
	for x := 0; x < g.w; x++ {
		r, ok := g.cells[[2]int{x, y}]
		if !ok {
			r = ' '
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (g *grid) count(r rune) int {
	n := 0
	for _, c := range g.cells {
		if c == r {
			n++
		}
	}
	return n
}

func TestViewScalesPlayArea(t *testing.T) {
	tuning := game.DefaultTuning()
	v := view{tuning: tuning}
	// 45x50 play cells, one cell per 10x10 pixels
	g := newGrid(47, 52+hudRows)

	x, y, w, h := v.cells(g, 0, 0, tuning.PlayAreaWidth, tuning.PlayAreaHeight)
	if x != 1 || y != 1 || w != 45 || h != 50 {
		t.Fatalf("full area = (%d,%d %dx%d), want (1,1 45x50)", x, y, w, h)
	}

	x, y, w, h = v.cells(g, 225, 450, 50, 50)
	if x != 23 || y != 46 || w != 5 || h != 5 {
		t.Errorf("player cells = (%d,%d %dx%d), want (23,46 5x5)", x, y, w, h)
	}

	// A projectile is narrower than a cell but still visible
	if _, _, w, h = v.cells(g, 0, 0, 5, 10); w != 1 || h != 1 {
		t.Errorf("projectile cells = %dx%d, want 1x1", w, h)
	}
}

func TestViewDraw(t *testing.T) {
	tuning := game.DefaultTuning()
	v := view{tuning: tuning}
	g := newGrid(47, 52+hudRows)

	s := tuning.NewState()
	s.Score = 42
	s.Projectiles = []game.Projectile{{ID: 1, X: 100, Y: 100}}
	s.Adversaries = []game.Adversary{{ID: 2, X: 0, Y: 0, Variant: 4}}
	v.draw(g, s)

	if n := g.count('▲'); n != 25 {
		t.Errorf("player cells = %d, want 25", n)
	}
	if n := g.count('|'); n != 1 {
		t.Errorf("projectile cells = %d, want 1", n)
	}
	if n := g.count('█'); n != 25 {
		t.Errorf("adversary cells = %d, want 25", n)
	}
	if r := g.cells[[2]int{0, 0}]; r != '┌' {
		t.Errorf("corner = %q, want ┌", r)
	}
	if hud := g.row(52); !strings.Contains(hud, "Score 42") || !strings.Contains(hud, "100") {
		t.Errorf("hud = %q", hud)
	}
	if strings.Contains(g.row(53), "GAME OVER") {
		t.Error("live session shows game over")
	}
}

func TestViewGameOver(t *testing.T) {
	tuning := game.DefaultTuning()
	v := view{tuning: tuning}
	g := newGrid(47, 52+hudRows)

	s := tuning.NewState()
	s.Player.Life = 0
	v.draw(g, s)

	if !strings.Contains(g.row(53), "GAME OVER") {
		t.Errorf("last row = %q, want game over banner", g.row(53))
	}
}

func TestViewClipsOffscreenEntities(t *testing.T) {
	tuning := game.DefaultTuning()
	v := view{tuning: tuning}
	g := newGrid(47, 52+hudRows)

	s := tuning.NewState()
	// Half above the top edge, the other half in the field
	s.Adversaries = []game.Adversary{{ID: 1, X: 0, Y: -20}}
	v.draw(g, s)

	for x := 1; x <= 45; x++ {
		if g.cells[[2]int{x, 0}] == '█' {
			t.Fatalf("adversary drawn over the border at x=%d", x)
		}
	}
	if n := g.count('█'); n == 0 || n >= 25 {
		t.Errorf("adversary cells = %d, want a clipped block", n)
	}
}

func TestLifeBar(t *testing.T) {
	tests := []struct {
		life, max int
		want      string
	}{
		{100, 100, "[■■■■■]"},
		{0, 100, "[     ]"},
		{-10, 100, "[     ]"},
		{1, 100, "[■    ]"},
		{50, 100, "[■■■  ]"},
		{40, 100, "[■■   ]"},
		{150, 100, "[■■■■■]"},
	}
	for _, tt := range tests {
		if got := lifeBar(tt.life, tt.max, 5); got != tt.want {
			t.Errorf("lifeBar(%d, %d) = %q, want %q", tt.life, tt.max, got, tt.want)
		}
	}
	if lifeBar(10, 0, 5) != "" {
		t.Error("zero max life should render nothing")
	}
}
