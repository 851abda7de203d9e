package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint     = "http://127.0.0.1:5000/predict"
	DefaultWidth        = 280
	DefaultHeight       = 280
	DefaultBrushRadius  = 10.0
	DefaultInk          = "#000000"
	DefaultPaper        = "#ffffff"
	DefaultSpawnMs      = 200
	DefaultLifetimeMs   = 12000
	DefaultTheme        = "cyberpunk"
	DefaultAddr         = ":5000"
	DefaultInputSize    = 32
	DefaultMaxInflight  = 4
	DefaultMaxSide      = 2048
	DefaultLogLevel     = "info"
	DefaultWindowWidth  = 960
	DefaultWindowHeight = 640
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Endpoint  string       `yaml:"endpoint"`
	TimeoutMs int          `yaml:"timeout_ms"`
	Theme     string       `yaml:"theme"`
	Canvas    CanvasConfig `yaml:"canvas"`
	Rain      RainConfig   `yaml:"rain"`
	Window    WindowConfig `yaml:"window"`
	Server    ServerConfig `yaml:"server"`
	Log       LogConfig    `yaml:"log"`
}

type CanvasConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	BrushRadius float64 `yaml:"brush_radius"`
	Ink         string  `yaml:"ink"`
	Paper       string  `yaml:"paper"`
}

type RainConfig struct {
	Enabled    bool   `yaml:"enabled"`
	IntervalMs int    `yaml:"interval_ms"`
	LifetimeMs int    `yaml:"lifetime_ms"`
	Alphabet   string `yaml:"alphabet"`
	Seed       int64  `yaml:"seed"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Font   string `yaml:"font"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	Model       string `yaml:"model"`
	InputSize   int    `yaml:"input_size"`
	MaxInflight int64  `yaml:"max_inflight"`
	MaxSide     int    `yaml:"max_side"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint: DefaultEndpoint,
		Theme:    DefaultTheme,
		Canvas: CanvasConfig{
			Width:       DefaultWidth,
			Height:      DefaultHeight,
			BrushRadius: DefaultBrushRadius,
			Ink:         DefaultInk,
			Paper:       DefaultPaper,
		},
		Rain: RainConfig{
			Enabled:    true,
			IntervalMs: DefaultSpawnMs,
			LifetimeMs: DefaultLifetimeMs,
		},
		Window: WindowConfig{
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
			Font:   "/usr/share/fonts/truetype/noto/NotoSansDevanagari-Regular.ttf",
		},
		Server: ServerConfig{
			Addr:        DefaultAddr,
			InputSize:   DefaultInputSize,
			MaxInflight: DefaultMaxInflight,
			MaxSide:     DefaultMaxSide,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("%w: endpoint is empty", ErrInvalid)
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalid, c.Canvas.Width, c.Canvas.Height)
	case c.Canvas.BrushRadius <= 0:
		return fmt.Errorf("%w: brush radius %.1f", ErrInvalid, c.Canvas.BrushRadius)
	case c.Rain.IntervalMs <= 0 || c.Rain.LifetimeMs <= 0:
		return fmt.Errorf("%w: rain interval %dms lifetime %dms", ErrInvalid, c.Rain.IntervalMs, c.Rain.LifetimeMs)
	case c.TimeoutMs < 0:
		return fmt.Errorf("%w: timeout %dms", ErrInvalid, c.TimeoutMs)
	case c.Server.InputSize <= 0:
		return fmt.Errorf("%w: input size %d", ErrInvalid, c.Server.InputSize)
	case c.Server.MaxInflight <= 0:
		return fmt.Errorf("%w: max inflight %d", ErrInvalid, c.Server.MaxInflight)
	case c.Server.MaxSide <= 0:
		return fmt.Errorf("%w: max side %d", ErrInvalid, c.Server.MaxSide)
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c *Config) SpawnInterval() time.Duration {
	return time.Duration(c.Rain.IntervalMs) * time.Millisecond
}

func (c *Config) GlyphLifetime() time.Duration {
	return time.Duration(c.Rain.LifetimeMs) * time.Millisecond
}

// ApplyPreset copies the canvas geometry of a named preset onto c.
func (c *Config) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, ListPresets())
	}
	c.Canvas.Width = p.Width
	c.Canvas.Height = p.Height
	c.Canvas.BrushRadius = p.BrushRadius
	return nil
}
