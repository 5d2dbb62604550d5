package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/plus3/renderworld/backend/term"
	"github.com/plus3/renderworld/config"
	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/render"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to a .toml or .yaml config file.")
	count := flag.Int("bouncers", 40, "Number of bouncing glyphs.")
	logPath := flag.String("log", "pipeline-demo.log", "File to write logs to; the terminal is busy drawing.")
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

	if err := run(cfg, *count, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, count int, logPath string) error {
	logger := zap.NewNop()
	if logPath != "" {
		logCfg := cfg.Logging
		logCfg.Format = "json"
		logCfg.Output = logPath
		var err error
		if logger, err = config.NewLogger(logCfg); err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
	}
	defer logger.Sync()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	registry := ecs.NewComponentRegistry()
	term.RegisterComponents(registry)
	ecs.RegisterComponent[Velocity](registry)

	backend := term.NewBackend(screen)
	app, err := render.New(registry, backend, cfg.Pipeline.Options(logger)...)
	if err != nil {
		return err
	}
	if err := term.Install(app, backend); err != nil {
		return err
	}

	sim := ecs.NewWorld(registry)
	width, height := screen.Size()
	spawnBouncers(sim, count, width, height, rand.New(rand.NewSource(1)))

	scheduler := ecs.NewScheduler(sim)
	scheduler.Register(&BounceSystem{Screen: screen})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go pollQuit(screen, cancel)

	logger.Info("demo started", zap.Int("bouncers", count), zap.Bool("queue_write_back", app.QueueWriteBack()))
	return app.Run(ctx, sim, cfg.Pipeline.FrameInterval, scheduler.Once)
}

// pollQuit cancels the demo on q, Esc or Ctrl-C.
func pollQuit(screen tcell.Screen, cancel context.CancelFunc) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				cancel()
				return
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}
