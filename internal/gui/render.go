package gui

import (
	"image/color"
	"math"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/aksharpad/internal/predict"
	"github.com/san-kum/aksharpad/internal/rain"
	"github.com/san-kum/aksharpad/internal/viz"
)

const (
	topMargin  = 72
	chromeH    = 150
	buttonW    = 120
	buttonH    = 36
	buttonGap  = 24
	maxScale   = 2.0
	minScale   = 0.25
	resultSize = 24
	hintSize   = 16
)

type frameLayout struct {
	pad        rl.Rectangle
	scale      float32
	result     rl.Vector2
	clearBtn   rl.Rectangle
	predictBtn rl.Rectangle
	hint       rl.Vector2
}

// toRaster maps a window position to raster pixels.
func (l frameLayout) toRaster(p rl.Vector2) (float64, float64) {
	return float64((p.X - l.pad.X) / l.scale), float64((p.Y - l.pad.Y) / l.scale)
}

func (a *App) layout() frameLayout {
	sw, sh := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	b := a.session.Surface().Bounds()
	rw, rh := float32(max(b.Dx(), 1)), float32(max(b.Dy(), 1))

	scale := min((sh-topMargin-chromeH)/rh, (sw-80)/rw, maxScale)
	scale = max(scale, minScale)

	w, h := rw*scale, rh*scale
	pad := rl.NewRectangle((sw-w)/2, topMargin, w, h)

	btnY := pad.Y + h + 56
	left := sw/2 - buttonW - buttonGap/2
	return frameLayout{
		pad:        pad,
		scale:      scale,
		result:     rl.NewVector2(pad.X, pad.Y+h+16),
		clearBtn:   rl.NewRectangle(left, btnY, buttonW, buttonH),
		predictBtn: rl.NewRectangle(sw/2+buttonGap/2, btnY, buttonW, buttonH),
		hint:       rl.NewVector2(16, sh-hintSize-12),
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	p := a.Palette
	rl.ClearBackground(p.Bg)
	a.drawRain(time.Now())

	l := a.layout()
	frame := rl.NewRectangle(l.pad.X-12, l.pad.Y-48, l.pad.Width+24, l.pad.Height+chromeH-20)
	rl.DrawRectangleRec(frame, p.Panel)
	rl.DrawRectangleLinesEx(frame, 1, p.Border)

	a.drawText("aksharpad", rl.NewVector2(l.pad.X, l.pad.Y-38), 28, p.Title)

	rl.DrawTextureEx(a.tex, rl.NewVector2(l.pad.X, l.pad.Y), 0, l.scale, rl.White)
	rl.DrawRectangleLinesEx(l.pad, 2, p.Border)

	a.drawResult(l)
	a.drawButton(l.clearBtn, "Clear")
	a.drawButton(l.predictBtn, "Predict")

	a.drawText("C clear   P predict   T theme ("+a.Theme.Name+")   Q quit", l.hint, hintSize, p.Muted)
}

func (a *App) drawResult(l frameLayout) {
	text, col := a.session.Result(), a.Palette.Text
	switch {
	case strings.HasPrefix(text, "Error:"):
		col = a.Palette.Error
	case text != predict.BaseText:
		col = a.Palette.Success
	}
	if a.session.Pending() {
		text = viz.AnimatedSpinner(int(rl.GetTime()*10)) + " " + text
	}
	a.drawText(text, l.result, resultSize, col)
}

func (a *App) drawButton(r rl.Rectangle, label string) {
	p := a.Palette
	bg := rl.ColorAlpha(p.Border, 0.4)
	if rl.CheckCollisionPointRec(rl.GetMousePosition(), r) {
		bg = rl.ColorAlpha(p.Border, 0.8)
	}
	rl.DrawRectangleRec(r, bg)
	rl.DrawRectangleLinesEx(r, 1, p.Title)

	size := rl.MeasureTextEx(a.Font, label, resultSize-4, 1)
	pos := rl.NewVector2(r.X+(r.Width-size.X)/2, r.Y+(r.Height-size.Y)/2)
	a.drawText(label, pos, resultSize-4, p.Text)
}

// drawRain draws every live glyph falling from just above the window top
// to its bottom edge. Larger glyphs are brighter.
func (a *App) drawRain(now time.Time) {
	if a.rain == nil {
		return
	}
	sw, sh := float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight())
	for _, g := range a.rain.Glyphs() {
		y := -g.Size + g.Progress(now)*(sh+g.Size)
		t := (g.Size - rain.MinSize) / rain.SizeSpread
		col := lerp(a.Palette.RainDim, a.Palette.Rain, t)
		a.drawText(g.Char, rl.NewVector2(float32(g.X*sw), float32(y)), float32(g.Size), col)
	}
}

func (a *App) drawText(text string, pos rl.Vector2, size float32, col color.RGBA) {
	rl.DrawTextEx(a.Font, text, pos, size, 1, col)
}

func lerp(from, to color.RGBA, t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(a, b uint8) uint8 { return uint8(float64(a) + (float64(b)-float64(a))*t) }
	return color.RGBA{mix(from.R, to.R), mix(from.G, to.G), mix(from.B, to.B), 255}
}
