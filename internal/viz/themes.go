package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the colour scheme shared by the pad panel and the rain.
type Theme struct {
	Name     string
	Border   lipgloss.Color
	Title    lipgloss.Color
	TitleEnd lipgloss.Color
	Ink      lipgloss.Color
	Text     lipgloss.Color
	Muted    lipgloss.Color
	Success  lipgloss.Color
	Error    lipgloss.Color
	Rain     lipgloss.Color // large, near glyphs
	RainDim  lipgloss.Color // small, far glyphs
}

var (
	ThemeCyberpunk = Theme{
		Name:     "cyberpunk",
		Border:   lipgloss.Color("#444466"),
		Title:    lipgloss.Color("#ff00ff"),
		TitleEnd: lipgloss.Color("#00ffff"),
		Ink:      lipgloss.Color("#ffffff"),
		Text:     lipgloss.Color("#e0e0ff"),
		Muted:    lipgloss.Color("#666688"),
		Success:  lipgloss.Color("#00ff88"),
		Error:    lipgloss.Color("#ff4444"),
		Rain:     lipgloss.Color("#aa44ff"),
		RainDim:  lipgloss.Color("#331a4d"),
	}

	ThemeRetroGreen = Theme{
		Name:     "retro",
		Border:   lipgloss.Color("#005500"),
		Title:    lipgloss.Color("#00ff00"),
		TitleEnd: lipgloss.Color("#88ff88"),
		Ink:      lipgloss.Color("#00ff00"),
		Text:     lipgloss.Color("#00ff00"),
		Muted:    lipgloss.Color("#005500"),
		Success:  lipgloss.Color("#88ff88"),
		Error:    lipgloss.Color("#ff0000"),
		Rain:     lipgloss.Color("#00cc00"),
		RainDim:  lipgloss.Color("#003300"),
	}

	ThemeSaffron = Theme{
		Name:     "saffron",
		Border:   lipgloss.Color("#8b5a2b"),
		Title:    lipgloss.Color("#ff9933"),
		TitleEnd: lipgloss.Color("#ffd27f"),
		Ink:      lipgloss.Color("#fff5e6"),
		Text:     lipgloss.Color("#ffe8cc"),
		Muted:    lipgloss.Color("#996633"),
		Success:  lipgloss.Color("#5fd068"),
		Error:    lipgloss.Color("#ff4757"),
		Rain:     lipgloss.Color("#ff9933"),
		RainDim:  lipgloss.Color("#4d2e0f"),
	}

	ThemeOcean = Theme{
		Name:     "ocean",
		Border:   lipgloss.Color("#4488aa"),
		Title:    lipgloss.Color("#0077be"),
		TitleEnd: lipgloss.Color("#00a8cc"),
		Ink:      lipgloss.Color("#e0f0ff"),
		Text:     lipgloss.Color("#e0f0ff"),
		Muted:    lipgloss.Color("#4488aa"),
		Success:  lipgloss.Color("#00ff88"),
		Error:    lipgloss.Color("#ff4444"),
		Rain:     lipgloss.Color("#00a8cc"),
		RainDim:  lipgloss.Color("#0a2a40"),
	}

	ThemeMinimal = Theme{
		Name:     "minimal",
		Border:   lipgloss.Color("#888888"),
		Title:    lipgloss.Color("#ffffff"),
		TitleEnd: lipgloss.Color("#cccccc"),
		Ink:      lipgloss.Color("#ffffff"),
		Text:     lipgloss.Color("#ffffff"),
		Muted:    lipgloss.Color("#888888"),
		Success:  lipgloss.Color("#00ff00"),
		Error:    lipgloss.Color("#ff0000"),
		Rain:     lipgloss.Color("#666666"),
		RainDim:  lipgloss.Color("#2a2a2a"),
	}

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeSaffron,
		ThemeOcean,
		ThemeMinimal,
	}
)

// GetTheme returns a theme by name, falling back to cyberpunk.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

// NextTheme returns the theme after name in cycling order.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
