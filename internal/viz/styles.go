package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Theme   Theme
	Border  lipgloss.Style
	Ink     lipgloss.Style
	Text    lipgloss.Style
	Muted   lipgloss.Style
	Result  lipgloss.Style
	Error   lipgloss.Style
	KeyHint lipgloss.Style
	Rain    lipgloss.Style
	RainDim lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Theme:   t,
		Border:  lipgloss.NewStyle().Foreground(t.Border),
		Ink:     lipgloss.NewStyle().Foreground(t.Ink),
		Text:    lipgloss.NewStyle().Foreground(t.Text),
		Muted:   lipgloss.NewStyle().Foreground(t.Muted),
		Result:  lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		KeyHint: lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		Rain:    lipgloss.NewStyle().Foreground(t.Rain).Bold(true),
		RainDim: lipgloss.NewStyle().Foreground(t.RainDim),
	}
}

// Glyph picks the rain style for a glyph of the given font size. Terminals
// cannot scale text, so size is shown as brightness instead.
func (s Styles) Glyph(size float64) lipgloss.Style {
	if size >= 40 {
		return s.Rain
	}
	return s.RainDim
}

// GradientText creates a gradient effect on text using color interpolation
func GradientText(text string, startColor, endColor lipgloss.Color) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	sr, sg, sb := parseHex(string(startColor))
	er, eg, eb := parseHex(string(endColor))

	var result strings.Builder
	n := len(runes)
	for i, c := range runes {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		r := int(float64(sr) + t*float64(er-sr))
		g := int(float64(sg) + t*float64(eg-sg))
		b := int(float64(sb) + t*float64(eb-sb))

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(r, g, b)))
		result.WriteString(style.Render(string(c)))
	}

	return result.String()
}

// AnimatedSpinner returns frame of animated spinner
func AnimatedSpinner(frame int) string {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return spinners[frame%len(spinners)]
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	r = parseHexByte(hex[1:3])
	g = parseHexByte(hex[3:5])
	b = parseHexByte(hex[5:7])
	return
}

func parseHexByte(s string) int {
	var val int
	for _, c := range s {
		val *= 16
		if c >= '0' && c <= '9' {
			val += int(c - '0')
		} else if c >= 'a' && c <= 'f' {
			val += int(c - 'a' + 10)
		} else if c >= 'A' && c <= 'F' {
			val += int(c - 'A' + 10)
		}
	}
	return val
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
