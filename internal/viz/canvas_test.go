package viz

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)

	c.Set(0, 0)
	c.Set(7, 7)
	c.Set(-1, 3)
	c.Set(100, 0)

	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1 set, got %U", c.Grid[0][0])
	}
	if c.Grid[1][3] != 0x2880 {
		t.Errorf("expected dot 8 set, got %U", c.Grid[1][3])
	}
	if !c.IsSet(0, 0) || c.IsSet(1, 0) {
		t.Error("IsSet disagrees with Set")
	}

	c.Clear()
	for _, row := range c.Grid {
		for _, r := range row {
			if r != blankCell {
				t.Fatalf("expected blank cell after clear, got %U", r)
			}
		}
	}
}

func TestRasterize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 80, 80))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	// Dark left half.
	draw.Draw(img, image.Rect(0, 0, 40, 80), image.NewUniform(color.Black), image.Point{}, draw.Src)

	c := NewCanvas(10, 5)
	c.Rasterize(img, 128)

	if !c.IsSet(0, 0) || !c.IsSet(8, 10) {
		t.Error("expected dots on the dark half")
	}
	if c.IsSet(19, 0) || c.IsSet(15, 19) {
		t.Error("expected no dots on the light half")
	}
	if c.Grid[2][0] != 0x28ff {
		t.Errorf("expected full cell on dark side, got %U", c.Grid[2][0])
	}
	if c.Grid[2][9] != blankCell {
		t.Errorf("expected empty cell on light side, got %U", c.Grid[2][9])
	}
}

func TestRasterizeNil(t *testing.T) {
	c := NewCanvas(3, 3)
	c.Set(0, 0)
	c.Rasterize(nil, 128)
	if c.IsSet(0, 0) {
		t.Error("nil image should leave a blank canvas")
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(2, 3)
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if c.Row(1) != lines[1] {
		t.Error("Row should match String output")
	}
	if c.Row(5) != "" {
		t.Error("out of range row should be empty")
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#000000", color.RGBA{0, 0, 0, 255}},
		{"#ffffff", color.RGBA{255, 255, 255, 255}},
		{"#FF8000", color.RGBA{255, 128, 0, 255}},
		{"bogus", color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		if got := ParseHex(tt.in); got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("ocean").Name != "ocean" {
		t.Error("expected ocean theme")
	}
	if GetTheme("nope").Name != ThemeCyberpunk.Name {
		t.Error("unknown theme should fall back to cyberpunk")
	}

	names := ThemeNames()
	last := names[len(names)-1]
	if NextTheme(last).Name != names[0] {
		t.Error("NextTheme should wrap around")
	}
	if NextTheme(names[0]).Name != names[1] {
		t.Error("NextTheme should advance")
	}
}

func TestGradientText(t *testing.T) {
	if GradientText("", "#000000", "#ffffff") != "" {
		t.Error("empty text should stay empty")
	}
	out := GradientText("अक्षर", "#ff0000", "#0000ff")
	if !strings.Contains(out, "अ") {
		t.Error("gradient should keep the runes")
	}
}
