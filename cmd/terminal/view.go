package main

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"cosmic-adventure/internal/game"
)

// hudRows is the number of rows below the play area.
const hudRows = 2

// canvas is the part of tcell.Screen the view draws through.
type canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
}

var (
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePlayer = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleShot   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleOver   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	foeStyles = []tcell.Style{
		tcell.StyleDefault.Foreground(tcell.ColorRed),
		tcell.StyleDefault.Foreground(tcell.ColorPurple),
		tcell.StyleDefault.Foreground(tcell.ColorBlue),
	}
)

// view maps play-area coordinates onto terminal cells.
type view struct {
	tuning game.Tuning
}

// field returns the cell rectangle holding the play area, inside a border.
func (v view) field(c canvas) (x0, y0, w, h int) {
	cw, ch := c.Size()
	return 1, 1, max(cw-2, 1), max(ch-2-hudRows, 1)
}

// cells converts a play-area rectangle to a cell rectangle of at least one cell.
func (v view) cells(c canvas, x, y, w, h float64) (cx, cy, cw, ch int) {
	x0, y0, fw, fh := v.field(c)
	sx := float64(fw) / v.tuning.PlayAreaWidth
	sy := float64(fh) / v.tuning.PlayAreaHeight

	cx = x0 + int(math.Floor(x*sx))
	cy = y0 + int(math.Floor(y*sy))
	cw = max(int(math.Round(w*sx)), 1)
	ch = max(int(math.Round(h*sy)), 1)
	return
}

func (v view) fill(c canvas, x, y, w, h float64, r rune, style tcell.Style) {
	cx, cy, cw, ch := v.cells(c, x, y, w, h)
	x0, y0, fw, fh := v.field(c)
	for row := cy; row < cy+ch; row++ {
		if row < y0 || row >= y0+fh {
			continue
		}
		for col := cx; col < cx+cw; col++ {
			if col < x0 || col >= x0+fw {
				continue
			}
			c.SetContent(col, row, r, nil, style)
		}
	}
}

// draw paints one snapshot. The caller clears and shows the screen.
func (v view) draw(c canvas, s game.State) {
	v.border(c)

	for _, a := range s.Adversaries {
		style := foeStyles[(a.Variant%len(foeStyles)+len(foeStyles))%len(foeStyles)]
		v.fill(c, a.X, a.Y, v.tuning.AdversarySize, v.tuning.AdversarySize, '█', style)
	}
	for _, p := range s.Projectiles {
		v.fill(c, p.X, p.Y, v.tuning.ProjectileWidth, v.tuning.ProjectileHeight, '|', styleShot)
	}
	pl := s.Player
	v.fill(c, pl.X, pl.Y, pl.Width, pl.Height, '▲', stylePlayer)

	v.hud(c, s)
}

func (v view) border(c canvas) {
	x0, y0, w, h := v.field(c)
	for col := x0; col < x0+w; col++ {
		c.SetContent(col, y0-1, '─', nil, styleBorder)
		c.SetContent(col, y0+h, '─', nil, styleBorder)
	}
	for row := y0; row < y0+h; row++ {
		c.SetContent(x0-1, row, '│', nil, styleBorder)
		c.SetContent(x0+w, row, '│', nil, styleBorder)
	}
	c.SetContent(x0-1, y0-1, '┌', nil, styleBorder)
	c.SetContent(x0+w, y0-1, '┐', nil, styleBorder)
	c.SetContent(x0-1, y0+h, '└', nil, styleBorder)
	c.SetContent(x0+w, y0+h, '┘', nil, styleBorder)
}

func (v view) hud(c canvas, s game.State) {
	_, y0, _, h := v.field(c)
	row := y0 + h + 1

	text(c, 1, row, fmt.Sprintf("Score %-6d Life %s %3d", s.Score, lifeBar(s.Player.Life, v.tuning.MaxLife, 10), s.Player.Life), styleHUD)
	if s.IsGameOver() {
		text(c, 1, row+1, "GAME OVER  r: again  enter: title", styleOver)
	} else {
		text(c, 1, row+1, "arrows/wasd move  space fire  esc title", styleBorder)
	}
}

// title paints the opening screen. best is shown when hasBest is set.
func (v view) title(c canvas, best game.LeaderboardEntry, hasBest bool) {
	v.border(c)
	_, y0, _, h := v.field(c)
	mid := y0 + h/2

	centered(c, mid-2, "COSMIC ADVENTURE", stylePlayer)
	centered(c, mid, "enter/space: play", styleHUD)
	centered(c, mid+1, "q: quit", styleHUD)
	if hasBest {
		centered(c, mid+3, fmt.Sprintf("best score %d", best.Score), styleShot)
	}
}

func centered(c canvas, y int, s string, style tcell.Style) {
	w, _ := c.Size()
	text(c, max((w-utf8.RuneCountInString(s))/2, 0), y, s, style)
}

// lifeBar renders life as a fixed-width bar of filled and empty blocks.
func lifeBar(life, maxLife, width int) string {
	if maxLife <= 0 || width <= 0 {
		return ""
	}
	filled := (max(life, 0)*width + maxLife - 1) / maxLife
	filled = min(filled, width)
	return "[" + strings.Repeat("■", filled) + strings.Repeat(" ", width-filled) + "]"
}

func text(c canvas, x, y int, s string, style tcell.Style) {
	for _, r := range s {
		c.SetContent(x, y, r, nil, style)
		x++
	}
}
