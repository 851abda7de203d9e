package viz

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blankCell = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = blankCell
		}
	}
	return c
}

// Set sets a dot at (x, y) in sub-pixel coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blankCell
		}
	}
}

// Rasterize redraws the canvas from img. The image is scaled down to the
// dot grid and every dot darker than threshold (0-255 luma) is set.
func (c *Canvas) Rasterize(img image.Image, threshold uint8) {
	c.Clear()
	if img == nil || c.Width == 0 || c.Height == 0 {
		return
	}

	dots := image.NewGray(image.Rect(0, 0, c.Width*2, c.Height*4))
	draw.ApproxBiLinear.Scale(dots, dots.Bounds(), img, img.Bounds(), draw.Src, nil)

	b := dots.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if dots.GrayAt(x, y).Y < threshold {
				c.Set(x, y)
			}
		}
	}
}

func (c *Canvas) Row(i int) string {
	if i < 0 || i >= c.Height {
		return ""
	}
	return string(c.Grid[i])
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// ParseHex reads "#rrggbb". Malformed input yields white, matching the
// lenient parsing used for theme colours.
func ParseHex(hex string) color.RGBA {
	r, g, b := parseHex(hex)
	return color.RGBA{uint8(r), uint8(g), uint8(b), 255}
}
