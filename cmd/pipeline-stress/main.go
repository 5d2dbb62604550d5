package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/renderworld/config"
	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/render"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to a .toml or .yaml config file.")
	duration := flag.Duration("duration", 0, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 0, "The initial number of simulation entities.")
	systemCount := flag.Int("systems", 0, "The number of simulation systems.")
	workers := flag.Int("workers", -1, "Systems per stage allowed to run at once (0 = GOMAXPROCS).")
	writeBack := flag.Bool("write-back", false, "Lend the simulation world to the Queue stage.")
	profileMode := flag.String("profile", "", "Write a cpu or mem profile to the working directory.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	seed := flag.Int64("seed", 1, "Random seed for the initial population.")
	flag.Parse()

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Stress.Duration = *duration
		case "entities":
			cfg.Stress.Entities = *entityCount
		case "systems":
			cfg.Stress.Systems = *systemCount
		case "workers":
			cfg.Pipeline.Workers = *workers
		case "write-back":
			cfg.Pipeline.QueueWriteBack = *writeBack
		}
	})

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		logger.Fatal("unknown profile mode", zap.String("profile", *profileMode))
	}

	report, err := run(context.Background(), cfg, logger, rand.New(rand.NewSource(*seed)))
	if err != nil {
		logger.Fatal("stress test failed", zap.Error(err))
	}
	report.GCPauseMetrics = *gcPauseMetrics

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		logger.Fatal("failed to generate report", zap.Error(err))
	}
	fmt.Println("--- End of Report ---")
}

// run builds the simulation world and the render pipeline from cfg and drives
// both until cfg.Stress.Duration elapses.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, rng *rand.Rand) (*Report, error) {
	logger.Info("starting render pipeline stress test",
		zap.Int("entities", cfg.Stress.Entities),
		zap.Int("systems", cfg.Stress.Systems),
		zap.Duration("duration", cfg.Stress.Duration),
		zap.Bool("queue_write_back", cfg.Pipeline.QueueWriteBack),
	)

	registry := ecs.NewComponentRegistry()
	RegisterComponents(registry)

	sim := ecs.NewWorld(registry)
	scheduler := ecs.NewScheduler(sim)
	if cfg.Pipeline.Workers > 0 {
		scheduler.Stage().SetWorkerLimit(cfg.Pipeline.Workers)
	}
	RegisterSimulationSystems(scheduler, max(cfg.Stress.Systems, 1), rng)

	backend := &batchBackend{}
	app, err := render.New(registry, backend, cfg.Pipeline.Options(logger)...)
	if err != nil {
		return nil, err
	}
	if err := InstallRenderSystems(app); err != nil {
		return nil, err
	}

	for i := 0; i < cfg.Stress.Entities; i++ {
		SpawnRandomEntity(sim, rng)
	}
	logger.Info("population complete", zap.Int("entities", sim.EntityCount()))

	report := &Report{
		Duration:       cfg.Stress.Duration,
		Entities:       cfg.Stress.Entities,
		Systems:        cfg.Stress.Systems,
		Workers:        cfg.Pipeline.Workers,
		QueueWriteBack: cfg.Pipeline.QueueWriteBack,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, cancel := context.WithTimeout(ctx, cfg.Stress.Duration)
	defer cancel()

	startTime := time.Now()
	lastFrameTime := time.Now()

Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			dt := time.Since(lastFrameTime).Seconds()
			lastFrameTime = time.Now()

			simStart := time.Now()
			if err := scheduler.Once(dt); err != nil {
				return nil, fmt.Errorf("simulation update: %w", err)
			}
			report.SimulationTime.Samples = append(report.SimulationTime.Samples, time.Since(simStart))

			frameStart := time.Now()
			if err := app.Update(ctx, sim, dt); err != nil {
				if ctx.Err() != nil {
					break Loop
				}
				return nil, err
			}
			report.FrameTime.Samples = append(report.FrameTime.Samples, time.Since(frameStart))
			report.TotalFrames++
		}
	}

	report.TotalTime = time.Since(startTime)
	report.SimulationTime.Finalize()
	report.FrameTime.Finalize()
	report.DrawCalls = backend.drawCalls
	report.Instances = backend.instances
	report.Pipeline = app.Stats()
	report.Simulation = scheduler.GetStats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	logger.Info("stress test finished",
		zap.Int64("frames", report.TotalFrames),
		zap.Duration("elapsed", report.TotalTime),
	)
	return report, nil
}
