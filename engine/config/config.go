package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/rendermanager/engine/core"
)

type RendererConfig struct {
	// Frames the game may record ahead of the render thread, 1 to 3.
	InflightFrames    int  `toml:"inflight_frames"`
	TaskQueueCapacity int  `toml:"task_queue_capacity"`
	SwapInterval      int  `toml:"swap_interval"`
	Profiling         bool `toml:"profiling"`
	ValidateDeletes   bool `toml:"validate_deletes"`
	// How long the render thread waits for a task before yielding.
	IdleTimeout Duration `toml:"idle_timeout"`
}

type WindowConfig struct {
	Title    string `toml:"title"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	Headless bool   `toml:"headless"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Renderer RendererConfig `toml:"renderer"`
	Window   WindowConfig   `toml:"window"`
	Log      LogConfig      `toml:"log"`
}

// Duration reads "250ms" style strings.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q", core.ErrInvalidConfig, string(text))
	}
	d.Duration = v
	return nil
}

func Default() *Config {
	return &Config{
		Renderer: RendererConfig{
			InflightFrames:    3,
			TaskQueueCapacity: 16,
			SwapInterval:      1,
			IdleTimeout:       Duration{100 * time.Millisecond},
		},
		Window: WindowConfig{
			Title:  "Render Manager",
			Width:  1280,
			Height: 720,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Parse reads a TOML document on top of the defaults. Missing keys keep their
// default value; unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Renderer.InflightFrames < 1 || c.Renderer.InflightFrames > 3 {
		return fmt.Errorf("%w: inflight_frames must be between 1 and 3, got %d", core.ErrInvalidConfig, c.Renderer.InflightFrames)
	}
	if c.Renderer.TaskQueueCapacity < 1 {
		return fmt.Errorf("%w: task_queue_capacity must be positive, got %d", core.ErrInvalidConfig, c.Renderer.TaskQueueCapacity)
	}
	if c.Renderer.IdleTimeout.Duration <= 0 {
		return fmt.Errorf("%w: idle_timeout must be positive", core.ErrInvalidConfig)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", core.ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	return nil
}

func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
