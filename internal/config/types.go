package config

// Loop holds the timing inputs of the game loop.
type Loop struct {
	UpdatesPerSecond int     `yaml:"updates_per_second"`
	FramesPerSecond  int     `yaml:"frames_per_second"`
	VSync            bool    `yaml:"vsync"`
	ThreadPolicy     string  `yaml:"thread_policy"`
	AnomalyThreshold float64 `yaml:"anomaly_threshold"`
}

type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	HUD    bool   `yaml:"hud"`
}

type Headless struct {
	Enabled bool  `yaml:"enabled"`
	Frames  int64 `yaml:"frames"`
}

type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type Metrics struct {
	// Addr serves /metrics when set, e.g. "127.0.0.1:9464".
	Addr string `yaml:"addr"`
}

// Config represents the tick.yaml file.
type Config struct {
	Demo     string   `yaml:"demo"`
	Loop     Loop     `yaml:"loop"`
	Window   Window   `yaml:"window"`
	Headless Headless `yaml:"headless"`
	Log      Log      `yaml:"log"`
	Metrics  Metrics  `yaml:"metrics"`
}

// Demo names.
const (
	DemoFade = "fade"
	DemoDrop = "drop"
)
