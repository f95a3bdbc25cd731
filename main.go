package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/respire/config"
	"github.com/pthm-cable/respire/sim"
	"github.com/pthm-cable/respire/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	scenario := flag.String("scenario", "", "Run a scripted scenario (sealed, vacuum) instead of the configured world")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (empty = disabled)")
	verbose := flag.Bool("v", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *seed != 0 {
		cfg.Physics.Seed = *seed
	}
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	if err := run(cfg, *scenario, *outputDir, *metricsAddr, *logStats, *maxTicks); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, scenario, outputDir, metricsAddr string, logStats bool, maxTicks int) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	output, err := telemetry.NewOutputManager(outputDir, "")
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, output.Close())
	}()

	var metrics *telemetry.Metrics
	if metricsAddr != "" {
		metrics = telemetry.NewMetrics(cfg.Metrics.Namespace)
		srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		slog.Info("serving metrics", "addr", metricsAddr)
	}

	opts := sim.Options{
		Output:   output,
		Metrics:  metrics,
		LogStats: logStats,
	}

	var s *sim.Simulation
	if scenario != "" {
		sc, err := sim.LookupScenario(scenario)
		if err != nil {
			return err
		}
		var id uint32
		s, id, err = sc.Build(cfg, opts)
		if err != nil {
			return err
		}
		slog.Info("running scenario", "scenario", sc.Name, "description", sc.Description, "organism", id)
	} else {
		s, err = sim.New(cfg, opts)
		if err != nil {
			return err
		}
		if err := s.SpawnInitialPopulation(); err != nil {
			return err
		}
	}

	if err := output.WriteConfig(s.Config()); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	slog.Info("starting headless simulation",
		"run_id", output.RunID(),
		"seed", cfg.Physics.Seed,
		"regions", s.Grid().Len(),
		"stats_window", cfg.Telemetry.StatsWindow,
		"max_ticks", maxTicks,
	)

	for {
		if err := s.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Info("interrupted", "tick", s.Tick())
				return nil
			}
			return err
		}

		if maxTicks > 0 && int(s.Tick()) >= maxTicks {
			breathing, suffocating := s.Population()
			slog.Info("max ticks reached", "tick", s.Tick(), "breathing", breathing, "suffocating", suffocating)
			return nil
		}
	}
}
