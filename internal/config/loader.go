package config

import (
	"fmt"
	"os"

	"github.com/rhpo/tick"
	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultTitle        = "Test game"
	DefaultWidth        = 600
	DefaultHeight       = 480
	DefaultLogLevel     = "info"
	DefaultLogMaxSizeMB = 10
	DefaultLogBackups   = 3
	DefaultLogMaxAge    = 7
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	loop := tick.DefaultConfig()
	return Config{
		Demo: DemoFade,
		Loop: Loop{
			UpdatesPerSecond: loop.UpdatesPerSecond,
			FramesPerSecond:  loop.FramesPerSecond,
			VSync:            loop.VSync,
			ThreadPolicy:     string(tick.ThreadDedicated),
			AnomalyThreshold: loop.AnomalyThreshold,
		},
		Window: Window{
			Title:  DefaultTitle,
			Width:  DefaultWidth,
			Height: DefaultHeight,
		},
		Log: Log{
			Level:      DefaultLogLevel,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogBackups,
			MaxAgeDays: DefaultLogMaxAge,
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LoadConfig reads and parses the YAML file at path. An empty path or a
// missing file yields the defaults. Fields absent from the file keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateConfig checks that all configuration values are valid.
func ValidateConfig(cfg *Config) error {
	switch cfg.Demo {
	case DemoFade, DemoDrop:
	default:
		return ValidationError{Field: "demo", Message: fmt.Sprintf("unknown demo %q", cfg.Demo)}
	}

	if cfg.Loop.UpdatesPerSecond <= 0 {
		return ValidationError{Field: "loop.updates_per_second", Message: "must be positive"}
	}
	if cfg.Loop.FramesPerSecond <= 0 {
		return ValidationError{Field: "loop.frames_per_second", Message: "must be positive"}
	}
	switch tick.ThreadPolicy(cfg.Loop.ThreadPolicy) {
	case tick.ThreadCalling, tick.ThreadDedicated:
	default:
		return ValidationError{Field: "loop.thread_policy", Message: "must be calling or dedicated"}
	}
	if cfg.Loop.AnomalyThreshold < 0 {
		return ValidationError{Field: "loop.anomaly_threshold", Message: "must not be negative"}
	}

	if !cfg.Headless.Enabled {
		if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
			return ValidationError{Field: "window", Message: "width and height must be positive"}
		}
		// ebiten keeps the main thread, so the loop needs its own.
		if tick.ThreadPolicy(cfg.Loop.ThreadPolicy) != tick.ThreadDedicated {
			return ValidationError{Field: "loop.thread_policy", Message: "a window requires the dedicated policy"}
		}
	}
	if cfg.Headless.Frames < 0 {
		return ValidationError{Field: "headless.frames", Message: "must not be negative"}
	}
	return nil
}

// TickConfig converts the loop section for tick.NewEngine.
func (c *Config) TickConfig() tick.Config {
	return tick.Config{
		UpdatesPerSecond: c.Loop.UpdatesPerSecond,
		FramesPerSecond:  c.Loop.FramesPerSecond,
		VSync:            c.Loop.VSync,
		ThreadPolicy:     tick.ThreadPolicy(c.Loop.ThreadPolicy),
		AnomalyThreshold: c.Loop.AnomalyThreshold,
	}
}
