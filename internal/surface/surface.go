package surface

import (
	"image"
	"image/color"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

const (
	DefaultWidth  = 280
	DefaultHeight = 280
	DefaultRadius = 10.0
)

var (
	Black = color.RGBA{0, 0, 0, 255}
	White = color.RGBA{255, 255, 255, 255}
)

type Surface struct {
	img    *image.RGBA
	filler *rasterx.Filler

	radius float64
	ink    color.RGBA
	paper  color.RGBA

	down    bool
	version uint64
}

type Option func(*Surface)

func WithRadius(r float64) Option {
	return func(s *Surface) {
		if r > 0 {
			s.radius = r
		}
	}
}

func WithInk(c color.RGBA) Option {
	return func(s *Surface) { s.ink = c }
}

func WithPaper(c color.RGBA) Option {
	return func(s *Surface) { s.paper = c }
}

// New returns a blank surface of the given size. Non-positive sizes fall
// back to the defaults.
func New(width, height int, opts ...Option) *Surface {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	s := &Surface{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		radius: DefaultRadius,
		ink:    Black,
		paper:  White,
	}
	for _, opt := range opts {
		opt(s)
	}

	scanner := rasterx.NewScannerGV(width, height, s.img, s.img.Bounds())
	s.filler = rasterx.NewFiller(width, height, scanner)
	s.filler.SetColor(s.ink)

	s.fill()
	return s
}

// Begin marks the pointer as down. Calling it twice is harmless.
func (s *Surface) Begin() {
	s.down = true
}

// End marks the pointer as up, for both release and leave.
func (s *Surface) End() {
	s.down = false
}

func (s *Surface) Down() bool {
	return s.down
}

// Paint stamps one brush circle centred on (x, y) if a stroke is active.
// It returns false when nothing was drawn, either because the pointer is
// up or because the circle lies entirely outside the raster.
func (s *Surface) Paint(x, y float64) bool {
	if !s.down {
		return false
	}
	b := s.img.Bounds()
	r := s.radius
	if x+r < float64(b.Min.X) || y+r < float64(b.Min.Y) ||
		x-r >= float64(b.Max.X) || y-r >= float64(b.Max.Y) {
		return false
	}

	rasterx.AddCircle(x, y, r, s.filler)
	s.filler.Draw()
	s.filler.Clear()

	s.version++
	return true
}

// Clear resets the whole raster to the paper colour. The pointer state is
// left alone so a stroke in progress continues on the blank pad.
func (s *Surface) Clear() {
	s.fill()
	s.version++
}

func (s *Surface) fill() {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(s.paper), image.Point{}, draw.Src)
}

func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

func (s *Surface) Radius() float64 {
	return s.radius
}

// Version changes every time the pixels may have changed.
func (s *Surface) Version() uint64 {
	return s.version
}

// Pixels exposes the live buffer for read-only uploads (textures, previews).
func (s *Surface) Pixels() *image.RGBA {
	return s.img
}

// Snapshot returns a deep copy of the raster.
func (s *Surface) Snapshot() *image.RGBA {
	cp := image.NewRGBA(s.img.Bounds())
	copy(cp.Pix, s.img.Pix)
	return cp
}

func (s *Surface) IsBlank() bool {
	p := s.img.Pix
	for i := 0; i+3 < len(p); i += 4 {
		if p[i] != s.paper.R || p[i+1] != s.paper.G || p[i+2] != s.paper.B || p[i+3] != s.paper.A {
			return false
		}
	}
	return true
}
