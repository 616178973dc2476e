package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rhpo/tick"
	"github.com/rhpo/tick/demo/drop"
	"github.com/rhpo/tick/demo/fade"
	"github.com/rhpo/tick/internal/config"
	"github.com/rhpo/tick/internal/logging"
	"github.com/rhpo/tick/window"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runDemo        string
	runHeadless    bool
	runFrames      int64
	runUPS         int
	runFPS         int
	runVSync       bool
	runPolicy      string
	runLogLevel    string
	runLogFile     string
	runMetricsAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a demo simulation",
	Long: `Run a demo simulation in a window, or headless with --headless.

Flags override values from the config file.`,
	Example: `  tick run --demo fade
  tick run --demo drop --vsync=false --fps 120
  tick run --headless --frames 600 --metrics-addr 127.0.0.1:9464`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runDemo, "demo", config.DemoFade, "demo to run: fade or drop")
	f.BoolVar(&runHeadless, "headless", false, "run without a window")
	f.Int64Var(&runFrames, "frames", 0, "stop after this many frames in headless mode (0 = until interrupted)")
	f.IntVar(&runUPS, "ups", tick.DefaultUpdatesPerSecond, "simulation updates per second")
	f.IntVar(&runFPS, "fps", tick.DefaultFramesPerSecond, "target frames per second when vsync is off")
	f.BoolVar(&runVSync, "vsync", true, "let the display pace rendering")
	f.StringVar(&runPolicy, "thread-policy", string(tick.ThreadDedicated), "where the loop runs: calling or dedicated")
	f.StringVar(&runLogLevel, "log-level", config.DefaultLogLevel, "debug, info, warn or error")
	f.StringVar(&runLogFile, "log-file", "", "also write JSON logs to this rotated file")
	f.StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(runCmd)
}

// applyRunFlags overrides cfg with the flags the user set explicitly.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("demo") {
		cfg.Demo = runDemo
	}
	if f.Changed("headless") {
		cfg.Headless.Enabled = runHeadless
	}
	if f.Changed("frames") {
		cfg.Headless.Frames = runFrames
	}
	if f.Changed("ups") {
		cfg.Loop.UpdatesPerSecond = runUPS
	}
	if f.Changed("fps") {
		cfg.Loop.FramesPerSecond = runFPS
	}
	if f.Changed("vsync") {
		cfg.Loop.VSync = runVSync
	}
	if f.Changed("thread-policy") {
		cfg.Loop.ThreadPolicy = runPolicy
	}
	if f.Changed("log-level") {
		cfg.Log.Level = runLogLevel
	}
	if f.Changed("log-file") {
		cfg.Log.File = runLogFile
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = runMetricsAddr
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	registry := prometheus.NewRegistry()
	metrics := tick.NewMetrics(registry)
	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, registry, logger)
		defer stop()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := newSimulation(cfg, logger)
	opts := []tick.Option{
		tick.WithConfig(cfg.TickConfig()),
		tick.WithLogger(logger),
		tick.WithMetrics(metrics),
	}

	var frames int64
	if cfg.Headless.Enabled {
		frames, err = runHeadlessLoop(ctx, cfg, sim, opts)
	} else {
		frames, err = runWindowLoop(ctx, cfg, sim, opts)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames\n", cfg.Demo, frames)
	return err
}

func newSimulation(cfg *config.Config, logger *zap.Logger) tick.Simulation {
	if cfg.Demo == config.DemoDrop {
		return drop.New(nil, logger)
	}
	return fade.New(logger)
}

func runHeadlessLoop(ctx context.Context, cfg *config.Config, sim tick.Simulation, opts []tick.Option) (int64, error) {
	surface := tick.NewHeadlessSurface(&tick.HeadlessProps{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Frames: cfg.Headless.Frames,
	})
	engine, err := tick.NewEngine(surface, sim, opts...)
	if err != nil {
		return 0, err
	}

	go func() {
		<-ctx.Done()
		surface.RequestClose()
	}()

	err = engine.Run()
	return engine.Frames(), err
}

// runWindowLoop gives the main goroutine to ebiten and runs the loop on a
// dedicated thread. Whichever side stops first brings the other down.
func runWindowLoop(ctx context.Context, cfg *config.Config, sim tick.Simulation, opts []tick.Option) (int64, error) {
	surface := window.New(&window.Props{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		VSync:  cfg.Loop.VSync,
		HUD:    cfg.Window.HUD,
	})
	engine, err := tick.NewEngine(surface, sim, opts...)
	if err != nil {
		return 0, err
	}

	done := engine.Start()
	go func() {
		<-ctx.Done()
		_ = surface.Close()
	}()

	runErr := surface.RunMain()
	loopErr := <-done
	if loopErr != nil {
		return engine.Frames(), loopErr
	}
	return engine.Frames(), runErr
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
