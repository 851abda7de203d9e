package config

import "sort"

var Presets = map[string]*CanvasConfig{
	"classic": {Width: 280, Height: 280, BrushRadius: 10, Ink: DefaultInk, Paper: DefaultPaper},
	"large":   {Width: 400, Height: 400, BrushRadius: 14, Ink: DefaultInk, Paper: DefaultPaper},
	"small":   {Width: 140, Height: 140, BrushRadius: 5, Ink: DefaultInk, Paper: DefaultPaper},
}

func GetPreset(name string) *CanvasConfig {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
