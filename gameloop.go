package tick

import (
	"fmt"
	"time"
)

const (
	DefaultUpdatesPerSecond = 30
	DefaultFramesPerSecond  = 75
	DefaultAnomalyThreshold = 0.25
)

// ThreadPolicy decides where the loop runs. Presentation backends with
// thread affinity must be driven from the thread that created them.
type ThreadPolicy string

const (
	ThreadCalling   ThreadPolicy = "calling"
	ThreadDedicated ThreadPolicy = "dedicated"
)

type Config struct {
	UpdatesPerSecond int
	FramesPerSecond  int
	VSync            bool
	ThreadPolicy     ThreadPolicy

	// AnomalyThreshold is the elapsed time in seconds above which a tick is
	// reported as a timing anomaly. It does not clamp anything.
	AnomalyThreshold float64
}

func DefaultConfig() Config {
	return Config{
		UpdatesPerSecond: DefaultUpdatesPerSecond,
		FramesPerSecond:  DefaultFramesPerSecond,
		VSync:            true,
		ThreadPolicy:     ThreadCalling,
		AnomalyThreshold: DefaultAnomalyThreshold,
	}
}

func (c Config) Validate() error {
	if c.UpdatesPerSecond <= 0 {
		return fmt.Errorf("updates per second must be positive, got %d", c.UpdatesPerSecond)
	}
	if c.FramesPerSecond <= 0 {
		return fmt.Errorf("frames per second must be positive, got %d", c.FramesPerSecond)
	}
	switch c.ThreadPolicy {
	case ThreadCalling, ThreadDedicated:
	default:
		return fmt.Errorf("unknown thread policy %q", c.ThreadPolicy)
	}
	if c.AnomalyThreshold < 0 {
		return fmt.Errorf("anomaly threshold must not be negative, got %v", c.AnomalyThreshold)
	}
	return nil
}

// FixedStep is the simulation increment handed to every Update call.
func (c Config) FixedStep() float64 {
	return 1 / float64(c.UpdatesPerSecond)
}

func (c Config) FrameInterval() float64 {
	return 1 / float64(c.FramesPerSecond)
}

// LoopData describes one rendered frame.
type LoopData struct {
	Time    time.Time
	Frame   int64
	Updates int

	// Remainder is the accumulator left after draining, in seconds.
	Remainder float64
	// Alpha is Remainder as a fraction of the fixed step, for interpolation.
	Alpha float64
}
