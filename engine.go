package tick

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ThrottleGranularity is the coarse sleep used while waiting for the next
// frame deadline.
const ThrottleGranularity = time.Millisecond

var ErrAlreadyStarted = errors.New("engine already started")

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type Option func(*Engine)

func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTimer replaces the Clock that is otherwise created when the loop
// starts.
func WithTimer(timer Timer) Option {
	return func(e *Engine) { e.clock = timer }
}

func WithSleeper(sleep func(time.Duration)) Option {
	return func(e *Engine) { e.sleep = sleep }
}

func WithMetrics(metrics *Metrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// Engine drives a Simulation against a Surface with a fixed update step and
// a variable render rate.
type Engine struct {
	*EventEmitter

	surface Surface
	sim     Simulation
	cfg     Config

	clock   Timer
	sleep   func(time.Duration)
	logger  *zap.Logger
	metrics *Metrics

	state   atomic.Int32
	started atomic.Bool
	frame   int64
}

func NewEngine(surface Surface, sim Simulation, opts ...Option) (*Engine, error) {
	if surface == nil {
		return nil, errors.New("nil surface")
	}
	if sim == nil {
		return nil, errors.New("nil simulation")
	}

	e := &Engine{
		EventEmitter: NewEventEmitter(),
		surface:      surface,
		sim:          sim,
		cfg:          DefaultConfig(),
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.sleep == nil {
		e.sleep = time.Sleep
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid loop config: %w", err)
	}
	return e, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Frames returns the number of frames rendered so far. Only meaningful from
// the loop goroutine or after Run returns.
func (e *Engine) Frames() int64 {
	return e.frame
}

// Run executes the loop according to the configured ThreadPolicy and
// returns after the loop has stopped and cleanup has run.
func (e *Engine) Run() error {
	if e.cfg.ThreadPolicy == ThreadDedicated {
		return <-e.Start()
	}
	return e.run()
}

// Start runs the loop on a new goroutine locked to its OS thread for the
// loop's whole lifetime. The channel receives the terminal result.
func (e *Engine) Start() <-chan error {
	done := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		done <- e.run()
	}()
	return done
}

func (e *Engine) run() (err error) {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if err := e.call(StageSurfaceInit, e.surface.Initialize); err != nil {
		e.logger.Error("surface initialization failed", zap.Error(err))
		e.setState(StateStopped)
		return err
	}
	if err := e.call(StageSimulationInit, func() error { return e.sim.Initialize(e.surface) }); err != nil {
		e.logger.Error("simulation initialization failed", zap.Error(err))
		e.closeSurface(&err)
		e.setState(StateStopped)
		return err
	}

	e.setState(StateRunning)
	e.logger.Info("loop running",
		zap.Int("ups", e.cfg.UpdatesPerSecond),
		zap.Int("fps", e.cfg.FramesPerSecond),
		zap.Bool("vsync", e.cfg.VSync),
	)

	defer func() {
		e.setState(StateStopping)
		if cerr := e.call(StageCleanup, e.sim.Cleanup); cerr != nil {
			if err == nil {
				err = cerr
			} else {
				e.logger.Error("cleanup failed after loop error", zap.Error(cerr))
			}
		}
		e.closeSurface(&err)
		e.setState(StateStopped)
		if err != nil {
			e.logger.Error("loop stopped", zap.Int64("frames", e.frame), zap.Error(err))
		} else {
			e.logger.Info("loop stopped", zap.Int64("frames", e.frame))
		}
	}()

	return e.loop()
}

func (e *Engine) loop() error {
	if e.clock == nil {
		e.clock = NewClock()
	}
	step := e.cfg.FixedStep()
	accumulator := 0.0

	for !e.surface.ShouldTerminate() {
		elapsed := e.clock.Elapsed()
		e.checkTiming(elapsed)
		accumulator += elapsed

		if err := e.call(StageInput, func() error { return e.sim.HandleInput(e.surface) }); err != nil {
			return err
		}

		updates := 0
		for accumulator >= step {
			if err := e.call(StageUpdate, func() error { return e.sim.Update(step) }); err != nil {
				return err
			}
			accumulator -= step
			updates++
		}

		e.frame++
		ld := LoopData{
			Time:      time.Now(),
			Frame:     e.frame,
			Updates:   updates,
			Remainder: accumulator,
			Alpha:     accumulator / step,
		}
		if err := e.call(StageRender, func() error { return e.sim.Render(e.surface, ld) }); err != nil {
			return err
		}
		if err := e.call(StagePresent, e.surface.Present); err != nil {
			return err
		}
		e.metrics.observeFrame(updates)
		e.Emit(EventFrame, EventFrameData{LoopData: ld})

		if !e.cfg.VSync {
			e.sync()
		}
	}
	return nil
}

// sync waits until one frame interval has passed since the last elapsed
// query. The deadline comes from the start of the iteration, not from the
// end of the just-finished work.
func (e *Engine) sync() {
	deadline := e.clock.LastTimestamp() + e.cfg.FrameInterval()
	for e.clock.Now() < deadline {
		e.sleep(ThrottleGranularity)
		e.metrics.sleep()
	}
}

// checkTiming reports suspicious ticks. Large values still produce the full
// number of catch-up updates.
func (e *Engine) checkTiming(elapsed float64) {
	e.metrics.observeTick(elapsed)

	threshold := e.cfg.AnomalyThreshold
	if elapsed > 0 && (threshold == 0 || elapsed <= threshold) {
		return
	}
	e.metrics.anomaly()
	e.logger.Warn("timing anomaly",
		zap.Float64("elapsed", elapsed),
		zap.Float64("threshold", threshold),
		zap.Int("catch_up_updates", int(elapsed/e.cfg.FixedStep())),
	)
	e.Emit(EventTimingAnomaly, EventTimingAnomalyData{Elapsed: elapsed, Threshold: threshold})
}

func (e *Engine) call(stage Stage, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = stageError(stage, fmt.Errorf("panic: %v", r))
		}
	}()
	return stageError(stage, fn())
}

func (e *Engine) closeSurface(err *error) {
	closer, ok := e.surface.(io.Closer)
	if !ok {
		return
	}
	cerr := e.call(StageCleanup, closer.Close)
	if cerr == nil {
		return
	}
	if *err == nil {
		*err = cerr
		return
	}
	e.logger.Error("surface close failed", zap.Error(cerr))
}

func (e *Engine) setState(next State) {
	prev := State(e.state.Swap(int32(next)))
	if prev == next {
		return
	}
	e.logger.Debug("loop state", zap.Stringer("from", prev), zap.Stringer("to", next))
	e.Emit(EventStateChange, EventStateChangeData{From: prev, To: next})
}
