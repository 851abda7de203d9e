// Package tui is the terminal drawing pad: a braille preview of the raster
// drawn with the mouse, a result line, and Devanagari rain behind the panel.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"github.com/san-kum/aksharpad/internal/applog"
	"github.com/san-kum/aksharpad/internal/predict"
	"github.com/san-kum/aksharpad/internal/rain"
	"github.com/san-kum/aksharpad/internal/session"
	"github.com/san-kum/aksharpad/internal/surface"
	"github.com/san-kum/aksharpad/internal/viz"
)

// inkThreshold is the luma below which a preview dot is lit.
const inkThreshold = 128

type Options struct {
	Surface   *surface.Surface
	Predictor predict.Predictor
	// Rain is optional; nil disables the animation.
	Rain   *rain.Rain
	Theme  string
	Logger *log.Logger
	// Now is the clock; tests pin it.
	Now func() time.Time
}

type model struct {
	ctx     context.Context
	session *session.Session
	rain    *rain.Rain
	log     *log.Logger

	theme   viz.Theme
	styles  viz.Styles
	preview *viz.Canvas
	geo     geometry

	frame int
	clock time.Time
}

type rainTickMsg time.Time

func rainTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return rainTickMsg(t) })
}

func newModel(ctx context.Context, opts Options) model {
	if opts.Surface == nil {
		opts.Surface = surface.New(0, 0)
	}
	if opts.Logger == nil {
		opts.Logger = applog.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	theme := viz.GetTheme(opts.Theme)
	logger := opts.Logger.WithPrefix("tui")
	m := model{
		ctx:     ctx,
		session: session.New(opts.Surface, opts.Predictor, logger),
		rain:    opts.Rain,
		log:     logger,
		theme:   theme,
		styles:  viz.NewStyles(theme),
		clock:   opts.Now(),
	}
	m.resize(80, 24)
	return m
}

func (m model) Init() tea.Cmd {
	if m.rain == nil {
		return nil
	}
	return rainTick(m.rain.Interval())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case rainTickMsg:
		m.clock = time.Time(msg)
		m.frame++
		if m.rain == nil {
			return m, nil
		}
		if spawned, expired := m.rain.Advance(m.clock); spawned > 1 {
			m.log.Debug("rain caught up", "spawned", spawned, "expired", expired)
		}
		return m, rainTick(m.rain.Interval())
	case predict.Outcome:
		m.session.Apply(msg)
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.session.Close()
		return m, tea.Quit
	case "c":
		m.session.Clear()
		m.refresh()
	case "p", "enter":
		return m, m.submit()
	case "t":
		m.theme = viz.NextTheme(m.theme.Name)
		m.styles = viz.NewStyles(m.theme)
	}
	return m, nil
}

func (m model) handleMouse(msg tea.MouseMsg) model {
	col, row, inside := m.geo.cell(msg.X, msg.Y)
	b := m.session.Surface().Bounds()
	x, y := m.geo.pixel(col, row, b.Dx(), b.Dy())

	var painted bool
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inside {
			return m
		}
		m.session.Press()
	case tea.MouseActionMotion:
		painted = m.session.Move(x, y, inside)
	case tea.MouseActionRelease:
		m.session.Release()
	}
	if painted {
		m.refresh()
	}
	return m
}

// submit snapshots the raster now and runs the exchange as a command, so
// strokes drawn while the request is in flight do not leak into it.
func (m model) submit() tea.Cmd {
	run := m.session.Submit(m.ctx)
	if run == nil {
		return nil
	}
	return func() tea.Msg { return run() }
}

func (m *model) resize(width, height int) {
	b := m.session.Surface().Bounds()
	m.geo = layout(width, height, b.Dx(), b.Dy())
	m.preview = viz.NewCanvas(m.geo.cols, m.geo.rows)
	m.refresh()
}

func (m *model) refresh() {
	m.preview.Rasterize(m.session.Surface().Pixels(), inkThreshold)
}

func (m model) View() string {
	var glyphs []rain.Glyph
	if m.rain != nil {
		glyphs = m.rain.Glyphs()
	}
	grid := rainGrid(glyphs, m.clock, m.geo.width, m.geo.height)
	return composite(m.geo, m.panel(), grid, m.styles)
}

func (m model) panel() []string {
	st := m.styles
	w := m.geo.panelW
	inner := strings.Repeat("─", m.geo.cols)

	lines := make([]string, 0, m.geo.rows+chromeLines)
	lines = append(lines, viz.GradientText(ansi.Truncate("a k s h a r p a d", w, ""), m.theme.Title, m.theme.TitleEnd))
	lines = append(lines, st.Border.Render("┌"+inner+"┐"))
	for i := 0; i < m.geo.rows; i++ {
		lines = append(lines, st.Border.Render("│")+st.Ink.Render(m.preview.Row(i))+st.Border.Render("│"))
	}
	lines = append(lines, st.Border.Render("└"+inner+"┘"))

	result := m.session.Result()
	var spin string
	if m.session.Pending() {
		spin = viz.AnimatedSpinner(m.frame) + " "
	}
	text := resultStyle(st, result).Render(ansi.Truncate(result, max(w-ansi.StringWidth(spin), 0), "…"))
	if spin != "" {
		text = st.Muted.Render(spin) + text
	}
	lines = append(lines, text)

	lines = append(lines, st.KeyHint.Render(ansi.Truncate("p predict  c clear  t theme  q quit", w, "")))
	return lines
}

// resultStyle colours the result line: plain for the prompt, error colour
// for failures, success colour for a prediction.
func resultStyle(st viz.Styles, result string) lipgloss.Style {
	switch {
	case strings.HasPrefix(result, "Error:"):
		return st.Error
	case result == predict.BaseText:
		return st.Text
	}
	return st.Result
}

// Run starts the pad on the alternate screen with mouse motion reporting.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(newModel(ctx, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

var _ tea.Model = model{}
