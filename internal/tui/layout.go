package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/aksharpad/internal/rain"
	"github.com/san-kum/aksharpad/internal/viz"
)

const (
	maxRows = 24
	minRows = 4

	// Lines around the pad rows: title, top and bottom border, result and
	// key hints.
	chromeLines = 5
)

// geometry places the pad panel on the screen. The pad interior occupies
// cols x rows cells starting at (padX, padY).
type geometry struct {
	width, height int
	cols, rows    int
	left, top     int
	padX, padY    int
	panelW        int
}

// layout sizes the pad to the terminal, keeping the raster's aspect ratio.
// A braille cell is 2x4 dots, so a square raster needs twice as many
// columns as rows.
func layout(width, height, rasterW, rasterH int) geometry {
	aspect := 2 * float64(rasterW) / float64(rasterH)

	rows := height - chromeLines - 2
	if rows > maxRows {
		rows = maxRows
	}
	maxCols := width - 4
	if c := int(float64(rows)*aspect + 0.5); c > maxCols {
		rows = int(float64(maxCols) / aspect)
	}
	if rows < minRows {
		rows = minRows
	}
	cols := int(float64(rows)*aspect + 0.5)
	if cols < 2 {
		cols = 2
	}

	g := geometry{width: width, height: height, cols: cols, rows: rows, panelW: cols + 2}
	g.left = max(0, (width-g.panelW)/2)
	g.top = max(0, (height-(rows+chromeLines))/2)
	g.padX = g.left + 1
	g.padY = g.top + 2
	return g
}

// cell maps a terminal cell to the pad cell under it.
func (g geometry) cell(x, y int) (col, row int, ok bool) {
	col, row = x-g.padX, y-g.padY
	return col, row, col >= 0 && col < g.cols && row >= 0 && row < g.rows
}

// pixel maps a pad cell to the raster point at its centre.
func (g geometry) pixel(col, row, rasterW, rasterH int) (float64, float64) {
	x := (float64(col) + 0.5) * float64(rasterW) / float64(g.cols)
	y := (float64(row) + 0.5) * float64(rasterH) / float64(g.rows)
	return x, y
}

type rainCell struct {
	ch   string
	size float64
}

// rainGrid projects the falling glyphs onto the screen. A glyph enters
// one row above the top edge and leaves past the bottom.
func rainGrid(glyphs []rain.Glyph, now time.Time, width, height int) [][]rainCell {
	grid := make([][]rainCell, height)
	for _, g := range glyphs {
		x := int(g.X * float64(width))
		y := int(g.Progress(now)*float64(height+1)) - 1
		if x < 0 || x >= width || y < 0 || y >= height {
			continue
		}
		if grid[y] == nil {
			grid[y] = make([]rainCell, width)
		}
		grid[y][x] = rainCell{ch: g.Char, size: g.Size}
	}
	return grid
}

func renderRain(row []rainCell, from, to int, st viz.Styles) string {
	if from >= to {
		return ""
	}
	if row == nil {
		return strings.Repeat(" ", to-from)
	}
	var b strings.Builder
	gap := 0
	for x := from; x < to; x++ {
		c := row[x]
		if c.ch == "" {
			gap++
			continue
		}
		if gap > 0 {
			b.WriteString(strings.Repeat(" ", gap))
			gap = 0
		}
		b.WriteString(st.Glyph(c.size).Render(c.ch))
	}
	if gap > 0 {
		b.WriteString(strings.Repeat(" ", gap))
	}
	return b.String()
}

// composite lays the panel lines over the rain so glyphs pass behind it.
func composite(g geometry, panel []string, grid [][]rainCell, st viz.Styles) string {
	var b strings.Builder
	right := min(g.width, g.left+g.panelW)
	for y := 0; y < g.height; y++ {
		var row []rainCell
		if y < len(grid) {
			row = grid[y]
		}
		if i := y - g.top; i >= 0 && i < len(panel) {
			b.WriteString(renderRain(row, 0, min(g.left, g.width), st))
			b.WriteString(lipgloss.PlaceHorizontal(g.panelW, lipgloss.Center, panel[i]))
			b.WriteString(renderRain(row, right, g.width, st))
		} else {
			b.WriteString(renderRain(row, 0, g.width, st))
		}
		if y < g.height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
