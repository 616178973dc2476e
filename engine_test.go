package tick

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTimer returns one scripted reading per Elapsed call. Sleeps taken
// through sleeper advance the clock and show up in the next reading.
type scriptedTimer struct {
	readings []float64
	next     int
	now      float64
	last     float64
}

func (t *scriptedTimer) Now() float64 { return t.now }

func (t *scriptedTimer) LastTimestamp() float64 { return t.last }

func (t *scriptedTimer) Elapsed() float64 {
	if t.next < len(t.readings) {
		t.now += t.readings[t.next]
		t.next++
	}
	elapsed := t.now - t.last
	t.last = t.now
	return elapsed
}

func (t *scriptedTimer) sleeper(calls *int) func(time.Duration) {
	return func(d time.Duration) {
		*calls++
		t.now += d.Seconds()
	}
}

type recordingSim struct {
	calls    []string
	steps    []float64
	renders  []LoopData
	inits    int
	cleanups int

	initErr    error
	inputErr   error
	updateErr  error
	renderErr  error
	cleanupErr error
	panicIn    string
}

func (s *recordingSim) Initialize(Surface) error {
	s.inits++
	return s.initErr
}

func (s *recordingSim) HandleInput(Surface) error {
	s.calls = append(s.calls, "input")
	if s.panicIn == "input" {
		panic("input exploded")
	}
	return s.inputErr
}

func (s *recordingSim) Update(step float64) error {
	s.calls = append(s.calls, "update")
	s.steps = append(s.steps, step)
	if s.panicIn == "update" {
		panic("update exploded")
	}
	return s.updateErr
}

func (s *recordingSim) Render(_ Surface, ld LoopData) error {
	s.calls = append(s.calls, "render")
	s.renders = append(s.renders, ld)
	return s.renderErr
}

func (s *recordingSim) Cleanup() error {
	s.cleanups++
	return s.cleanupErr
}

func (s *recordingSim) updatesPerFrame() []int {
	var out []int
	for _, ld := range s.renders {
		out = append(out, ld.Updates)
	}
	return out
}

type failingSurface struct {
	*HeadlessSurface
	initErr    error
	presentErr error
	closes     int
	closeErr   error
}

func (f *failingSurface) Initialize() error {
	if f.initErr != nil {
		return f.initErr
	}
	return f.HeadlessSurface.Initialize()
}

func (f *failingSurface) Present() error {
	if f.presentErr != nil {
		return f.presentErr
	}
	return f.HeadlessSurface.Present()
}

func (f *failingSurface) Close() error {
	f.closes++
	return f.closeErr
}

func newTestEngine(t *testing.T, surface Surface, sim Simulation, cfg Config, timer Timer, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithConfig(cfg), WithTimer(timer)}, opts...)
	e, err := NewEngine(surface, sim, opts...)
	require.NoError(t, err)
	return e
}

func vsyncConfig(ups int) Config {
	cfg := DefaultConfig()
	cfg.UpdatesPerSecond = ups
	cfg.VSync = true
	cfg.AnomalyThreshold = 0
	return cfg
}

func TestEngineDrainsThreeStepsFromTenthOfSecond(t *testing.T) {
	sim := &recordingSim{}
	surface := NewHeadlessSurface(&HeadlessProps{Frames: 1})
	timer := &scriptedTimer{readings: []float64{0.1}}

	e := newTestEngine(t, surface, sim, vsyncConfig(30), timer)
	require.NoError(t, e.Run())

	assert.Len(t, sim.steps, 3)
	require.Len(t, sim.renders, 1)
	assert.InDelta(t, 0.0, sim.renders[0].Remainder, 1e-9)
}

func TestEngineAccumulatorCarriesAcrossFrames(t *testing.T) {
	readings := []float64{0.125, 0.5, 0.0625, 0.75, 0.015625}
	sim := &recordingSim{}
	surface := NewHeadlessSurface(&HeadlessProps{Frames: int64(len(readings))})
	timer := &scriptedTimer{readings: readings}

	e := newTestEngine(t, surface, sim, vsyncConfig(4), timer)
	require.NoError(t, e.Run())

	sum := 0.0
	for _, r := range readings {
		sum += r
	}
	step := 0.25
	expected := int(math.Floor(sum / step))

	assert.Len(t, sim.steps, expected)
	assert.Equal(t, []int{0, 2, 0, 3, 0}, sim.updatesPerFrame())

	last := sim.renders[len(sim.renders)-1]
	assert.InDelta(t, sum-float64(expected)*step, last.Remainder, 1e-12)
	assert.GreaterOrEqual(t, last.Remainder, 0.0)
	assert.Less(t, last.Remainder, step)
	assert.InDelta(t, last.Remainder/step, last.Alpha, 1e-12)
}

func TestEngineUpdateAlwaysReceivesFixedStep(t *testing.T) {
	readings := []float64{0.003, 0.2, 0.0171, 1.3, 0.04}
	sim := &recordingSim{}
	surface := NewHeadlessSurface(&HeadlessProps{Frames: int64(len(readings))})

	e := newTestEngine(t, surface, sim, vsyncConfig(60), &scriptedTimer{readings: readings})
	require.NoError(t, e.Run())

	require.NotEmpty(t, sim.steps)
	for _, step := range sim.steps {
		assert.Equal(t, 1.0/60.0, step)
	}
}

func TestEngineRendersOncePerIteration(t *testing.T) {
	readings := []float64{0.001, 0.001, 0.5, 0}
	sim := &recordingSim{}
	surface := NewHeadlessSurface(&HeadlessProps{Frames: int64(len(readings))})

	e := newTestEngine(t, surface, sim, vsyncConfig(4), &scriptedTimer{readings: readings})
	require.NoError(t, e.Run())

	assert.Len(t, sim.renders, len(readings))
	assert.Equal(t, int64(len(readings)), surface.Presented())
	assert.Equal(t, int64(len(readings)), e.Frames())
	assert.Equal(t, []int{0, 0, 2, 0}, sim.updatesPerFrame())
	for i, ld := range sim.renders {
		assert.Equal(t, int64(i+1), ld.Frame)
	}
}

func TestEngineCallOrderWithinIteration(t *testing.T) {
	sim := &recordingSim{}
	surface := NewHeadlessSurface(&HeadlessProps{Frames: 2})

	e := newTestEngine(t, surface, sim, vsyncConfig(4), &scriptedTimer{readings: []float64{0.5, 0.1}})
	require.NoError(t, e.Run())

	assert.Equal(t, []string{
		"input", "update", "update", "render",
		"input", "render",
	}, sim.calls)
}

func TestEngineCleanupRunsOnceOnEveryExitPath(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name       string
		sim        *recordingSim
		presentErr error
		closeAfter int64
		wantErr    error
		wantStage  Stage
	}{
		{name: "normal termination", sim: &recordingSim{}},
		{name: "presentation requested close", sim: &recordingSim{}, closeAfter: 2},
		{name: "input failure", sim: &recordingSim{inputErr: boom}, wantErr: boom, wantStage: StageInput},
		{name: "update failure", sim: &recordingSim{updateErr: boom}, wantErr: boom, wantStage: StageUpdate},
		{name: "render failure", sim: &recordingSim{renderErr: boom}, wantErr: boom, wantStage: StageRender},
		{name: "present failure", sim: &recordingSim{}, presentErr: boom, wantErr: boom, wantStage: StagePresent},
		{name: "update panic", sim: &recordingSim{panicIn: "update"}, wantStage: StageUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headless := NewHeadlessSurface(&HeadlessProps{Frames: 5})
			surface := &failingSurface{HeadlessSurface: headless, presentErr: tt.presentErr}
			if tt.closeAfter > 0 {
				headless.OnPresent(func(Frame) {
					if headless.Presented() >= tt.closeAfter {
						headless.RequestClose()
					}
				})
			}

			e := newTestEngine(t, surface, tt.sim, vsyncConfig(4), &scriptedTimer{readings: []float64{0.3, 0.3, 0.3, 0.3, 0.3}})
			err := e.Run()

			assert.Equal(t, 1, tt.sim.cleanups)
			assert.Equal(t, 1, surface.closes)
			assert.Equal(t, StateStopped, e.State())

			if tt.wantStage == "" {
				require.NoError(t, err)
				if tt.closeAfter > 0 {
					assert.Equal(t, tt.closeAfter, headless.Presented())
				}
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrHandler)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			var loopErr *LoopError
			require.ErrorAs(t, err, &loopErr)
			assert.Equal(t, tt.wantStage, loopErr.Stage)
		})
	}
}

func TestEngineSurfaceInitFailure(t *testing.T) {
	boom := errors.New("no display")
	sim := &recordingSim{}
	surface := &failingSurface{HeadlessSurface: NewHeadlessSurface(nil), initErr: boom}

	e := newTestEngine(t, surface, sim, vsyncConfig(30), &scriptedTimer{})
	err := e.Run()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInitialization)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, sim.inits)
	assert.Zero(t, sim.cleanups)
	assert.Zero(t, surface.closes)
	assert.Empty(t, sim.calls)
	assert.Equal(t, StateStopped, e.State())
}

func TestEngineSimulationInitFailure(t *testing.T) {
	boom := errors.New("no shaders")
	sim := &recordingSim{initErr: boom}
	surface := &failingSurface{HeadlessSurface: NewHeadlessSurface(nil)}

	e := newTestEngine(t, surface, sim, vsyncConfig(30), &scriptedTimer{})
	err := e.Run()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInitialization)
	var loopErr *LoopError
	require.ErrorAs(t, err, &loopErr)
	assert.Equal(t, StageSimulationInit, loopErr.Stage)
	assert.Zero(t, sim.cleanups)
	assert.Equal(t, 1, surface.closes)
	assert.Empty(t, sim.calls)
}

func TestEngineCleanupErrorReporting(t *testing.T) {
	cleanupErr := errors.New("leaked buffers")
	renderErr := errors.New("lost context")

	t.Run("returned when loop succeeded", func(t *testing.T) {
		sim := &recordingSim{cleanupErr: cleanupErr}
		e := newTestEngine(t, NewHeadlessSurface(&HeadlessProps{Frames: 1}), sim, vsyncConfig(30), &scriptedTimer{})

		err := e.Run()
		assert.ErrorIs(t, err, ErrCleanup)
		assert.ErrorIs(t, err, cleanupErr)
	})

	t.Run("first failure wins", func(t *testing.T) {
		sim := &recordingSim{cleanupErr: cleanupErr, renderErr: renderErr}
		e := newTestEngine(t, NewHeadlessSurface(&HeadlessProps{Frames: 1}), sim, vsyncConfig(30), &scriptedTimer{})

		err := e.Run()
		assert.ErrorIs(t, err, renderErr)
		assert.NotErrorIs(t, err, cleanupErr)
		assert.Equal(t, 1, sim.cleanups)
	})
}

func TestEngineThrottleSkippedWithVSync(t *testing.T) {
	sleeps := 0
	timer := &scriptedTimer{readings: []float64{0.001, 0.001, 0.001}}
	cfg := vsyncConfig(30)

	e := newTestEngine(t, NewHeadlessSurface(&HeadlessProps{Frames: 3}), &recordingSim{}, cfg, timer, WithSleeper(timer.sleeper(&sleeps)))
	require.NoError(t, e.Run())

	assert.Zero(t, sleeps)
}

func TestEngineThrottleWaitsForFrameDeadline(t *testing.T) {
	sleeps := 0
	timer := &scriptedTimer{readings: []float64{0.002}}
	cfg := vsyncConfig(30)
	cfg.VSync = false
	cfg.FramesPerSecond = 75

	surface := NewHeadlessSurface(&HeadlessProps{Frames: 1})
	e := newTestEngine(t, surface, &recordingSim{}, cfg, timer, WithSleeper(timer.sleeper(&sleeps)))
	require.NoError(t, e.Run())

	waited := timer.Now() - timer.LastTimestamp()
	assert.Equal(t, 14, sleeps)
	assert.GreaterOrEqual(t, waited, 1.0/75.0)
	assert.Less(t, waited, 1.0/75.0+ThrottleGranularity.Seconds())
}

func TestEngineThrottleWithRealClock(t *testing.T) {
	cfg := vsyncConfig(30)
	cfg.VSync = false
	cfg.FramesPerSecond = 75

	clock := NewClock()
	surface := NewHeadlessSurface(&HeadlessProps{Frames: 5})
	e, err := NewEngine(surface, &recordingSim{}, WithConfig(cfg), WithTimer(clock))
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, e.Run())
	total := time.Since(start)

	assert.GreaterOrEqual(t, clock.Now()-clock.LastTimestamp(), 1.0/75.0)
	assert.GreaterOrEqual(t, total.Seconds(), 5.0/75.0)
}

func TestEngineTimingAnomaliesAreAdvisory(t *testing.T) {
	cfg := vsyncConfig(4)
	cfg.AnomalyThreshold = 0.25
	sim := &recordingSim{}
	surface := NewHeadlessSurface(&HeadlessProps{Frames: 3})

	e := newTestEngine(t, surface, sim, cfg, &scriptedTimer{readings: []float64{0, 0.125, 1.0}})

	var anomalies []EventTimingAnomalyData
	e.On(EventTimingAnomaly, func(data interface{}) {
		anomalies = append(anomalies, data.(EventTimingAnomalyData))
	})
	require.NoError(t, e.Run())

	require.Len(t, anomalies, 2)
	assert.Equal(t, 0.0, anomalies[0].Elapsed)
	assert.Equal(t, 1.0, anomalies[1].Elapsed)
	assert.Equal(t, []int{0, 0, 4}, sim.updatesPerFrame())
}

func TestEngineStateTransitions(t *testing.T) {
	e := newTestEngine(t, NewHeadlessSurface(&HeadlessProps{Frames: 1}), &recordingSim{}, vsyncConfig(30), &scriptedTimer{})
	assert.Equal(t, StateIdle, e.State())

	var seen []EventStateChangeData
	e.On(EventStateChange, func(data interface{}) {
		seen = append(seen, data.(EventStateChangeData))
	})
	require.NoError(t, e.Run())

	assert.Equal(t, []EventStateChangeData{
		{From: StateIdle, To: StateRunning},
		{From: StateRunning, To: StateStopping},
		{From: StateStopping, To: StateStopped},
	}, seen)
}

func TestEngineRunsOnlyOnce(t *testing.T) {
	sim := &recordingSim{}
	e := newTestEngine(t, NewHeadlessSurface(&HeadlessProps{Frames: 1}), sim, vsyncConfig(30), &scriptedTimer{})

	require.NoError(t, e.Run())
	assert.ErrorIs(t, e.Run(), ErrAlreadyStarted)
	assert.Equal(t, 1, sim.cleanups)
}

func TestEngineDedicatedThreadPolicy(t *testing.T) {
	cfg := vsyncConfig(4)
	cfg.ThreadPolicy = ThreadDedicated
	sim := &recordingSim{updateErr: errors.New("diverged")}

	e := newTestEngine(t, NewHeadlessSurface(&HeadlessProps{Frames: 3}), sim, cfg, &scriptedTimer{readings: []float64{0.5}})
	err := e.Run()

	assert.ErrorIs(t, err, ErrHandler)
	assert.Equal(t, 1, sim.cleanups)
}

func TestEngineStartReportsResult(t *testing.T) {
	surface := NewHeadlessSurface(nil)
	sim := &recordingSim{}
	e := newTestEngine(t, surface, sim, vsyncConfig(30), NewClock())

	done := e.Start()
	surface.RequestClose()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, 1, sim.cleanups)
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UpdatesPerSecond = 0

	_, err := NewEngine(NewHeadlessSurface(nil), &recordingSim{}, WithConfig(cfg))
	assert.Error(t, err)

	_, err = NewEngine(nil, &recordingSim{})
	assert.Error(t, err)
}
