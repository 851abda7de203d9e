package gui

import (
	"context"
	"image/color"
	"os"
	"time"

	"github.com/charmbracelet/log"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/aksharpad/internal/applog"
	"github.com/san-kum/aksharpad/internal/predict"
	"github.com/san-kum/aksharpad/internal/rain"
	"github.com/san-kum/aksharpad/internal/session"
	"github.com/san-kum/aksharpad/internal/viz"
)

const (
	fontSize   = 64
	outcomeBuf = 4
)

// Palette is a theme converted to raylib colours.
type Palette struct {
	Bg, Panel, Border, Title, Text, Muted, Success, Error, Rain, RainDim color.RGBA
}

func paletteFor(t viz.Theme) Palette {
	return Palette{
		Bg:      rl.NewColor(10, 10, 14, 255),
		Panel:   rl.NewColor(18, 18, 24, 235),
		Border:  viz.ParseHex(string(t.Border)),
		Title:   viz.ParseHex(string(t.Title)),
		Text:    viz.ParseHex(string(t.Text)),
		Muted:   viz.ParseHex(string(t.Muted)),
		Success: viz.ParseHex(string(t.Success)),
		Error:   viz.ParseHex(string(t.Error)),
		Rain:    viz.ParseHex(string(t.Rain)),
		RainDim: viz.ParseHex(string(t.RainDim)),
	}
}

type Options struct {
	Session *session.Session
	Rain    *rain.Rain
	Width   int
	Height  int
	Font    string
	Theme   string
	Logger  *log.Logger
}

type App struct {
	ctx     context.Context
	session *session.Session
	rain    *rain.Rain
	log     *log.Logger

	Font    rl.Font
	Theme   viz.Theme
	Palette Palette

	tex      rl.Texture2D
	texVer   uint64
	pixels   []color.RGBA
	outcomes chan predict.Outcome
	done     chan struct{}
	quit     bool
}

func initWindow(w, h int) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(w), int32(h), "aksharpad")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// devanagariCodepoints is printable ASCII plus the Devanagari block, which
// is what the result line and the rain need.
func devanagariCodepoints() []rune {
	cps := make([]rune, 0, 95+128+1)
	for r := rune(32); r < 127; r++ {
		cps = append(cps, r)
	}
	for r := rune(0x0900); r <= 0x097F; r++ {
		cps = append(cps, r)
	}
	return append(cps, '…')
}

// loadFont loads path with Devanagari coverage. Without a usable file the
// raylib default font is returned, which draws Latin text only.
func loadFont(path string, logger *log.Logger) rl.Font {
	if path == "" {
		logger.Warn("no font configured; Devanagari glyphs will not render")
		return rl.GetFontDefault()
	}
	if _, err := os.Stat(path); err != nil {
		logger.Warn("font unavailable; Devanagari glyphs will not render", "path", path, "err", err)
		return rl.GetFontDefault()
	}
	cps := devanagariCodepoints()
	font := rl.LoadFontEx(path, fontSize, cps, int32(len(cps)))
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// NewApp needs an initialised window.
func NewApp(ctx context.Context, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	if opts.Session == nil {
		opts.Session = session.New(nil, nil, opts.Logger)
	}
	logger := opts.Logger.WithPrefix("gui")

	a := &App{
		ctx:      ctx,
		session:  opts.Session,
		rain:     opts.Rain,
		log:      logger,
		Font:     loadFont(opts.Font, logger),
		outcomes: make(chan predict.Outcome, outcomeBuf),
		done:     make(chan struct{}),
	}
	a.setTheme(viz.GetTheme(opts.Theme))

	img := rl.NewImageFromImage(a.session.Surface().Pixels())
	a.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	a.texVer = a.session.Surface().Version()
	return a
}

// Run opens the window and blocks until it is closed, q is pressed or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 960, 640
	}
	initWindow(opts.Width, opts.Height)
	defer rl.CloseWindow()

	app := NewApp(ctx, opts)
	defer app.Unload()
	app.RunLoop()
	return nil
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() && !a.quit && a.ctx.Err() == nil {
		a.Update()
		a.Draw()
	}
}

func (a *App) Unload() {
	a.session.Close()
	close(a.done)
	rl.UnloadTexture(a.tex)
	if a.Font.Texture.ID != rl.GetFontDefault().Texture.ID {
		rl.UnloadFont(a.Font)
	}
}

func (a *App) setTheme(t viz.Theme) {
	a.Theme = t
	a.Palette = paletteFor(t)
}

func (a *App) Update() {
	a.drainOutcomes()

	switch {
	case rl.IsKeyPressed(rl.KeyQ), rl.IsKeyPressed(rl.KeyEscape):
		a.quit = true
		return
	case rl.IsKeyPressed(rl.KeyC):
		a.session.Clear()
	case rl.IsKeyPressed(rl.KeyP), rl.IsKeyPressed(rl.KeyEnter):
		a.submit()
	case rl.IsKeyPressed(rl.KeyT):
		a.setTheme(viz.NextTheme(a.Theme.Name))
	}

	a.handleMouse()

	if a.rain != nil {
		a.rain.Advance(time.Now())
	}
	a.syncTexture()
}

func (a *App) handleMouse() {
	l := a.layout()
	pos := rl.GetMousePosition()
	inside := rl.CheckCollisionPointRec(pos, l.pad)
	x, y := l.toRaster(pos)

	switch {
	case rl.IsMouseButtonPressed(rl.MouseButtonLeft):
		if inside {
			a.session.Press()
			return
		}
		if rl.CheckCollisionPointRec(pos, l.clearBtn) {
			a.session.Clear()
		} else if rl.CheckCollisionPointRec(pos, l.predictBtn) {
			a.submit()
		}
	case rl.IsMouseButtonDown(rl.MouseButtonLeft):
		a.session.Move(x, y, inside)
	case rl.IsMouseButtonReleased(rl.MouseButtonLeft):
		a.session.Release()
	}
}

func (a *App) submit() {
	run := a.session.Submit(a.ctx)
	if run == nil {
		return
	}
	go func() {
		o := run()
		select {
		case a.outcomes <- o:
		case <-a.done:
		}
	}()
}

func (a *App) drainOutcomes() {
	for {
		select {
		case o := <-a.outcomes:
			a.session.Apply(o)
		default:
			return
		}
	}
}

// syncTexture re-uploads the raster when it changed since the last frame.
func (a *App) syncTexture() {
	pad := a.session.Surface()
	if pad.Version() == a.texVer {
		return
	}
	pix := pad.Pixels().Pix
	if cap(a.pixels) < len(pix)/4 {
		a.pixels = make([]color.RGBA, len(pix)/4)
	}
	a.pixels = a.pixels[:len(pix)/4]
	for i := range a.pixels {
		a.pixels[i] = color.RGBA{pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3]}
	}
	rl.UpdateTexture(a.tex, a.pixels)
	a.texVer = pad.Version()
}
