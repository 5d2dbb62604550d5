package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/renderworld/backend/sprite"
	spriteebiten "github.com/plus3/renderworld/backend/sprite/ebiten"
	"github.com/plus3/renderworld/config"
	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/ecs/debugui"
	debugui_ebiten "github.com/plus3/renderworld/ecs/debugui/ebiten"
	"github.com/plus3/renderworld/render"
	"go.uber.org/zap"
)

const (
	screenWidth  = 1280
	screenHeight = 720
)

type options struct {
	colonies  int
	colonists int
	resources int
	size      int
	seed      int64
}

func main() {
	configPath := flag.String("config", "", "Path to a .toml or .yaml config file.")
	var opts options
	flag.IntVar(&opts.colonies, "colonies", 4, "Number of colonies.")
	flag.IntVar(&opts.colonists, "colonists", 5, "Colonists per colony.")
	flag.IntVar(&opts.resources, "resources", 200, "Number of resource nodes.")
	flag.IntVar(&opts.size, "size", 100, "Width and height of the map in cells.")
	flag.Int64Var(&opts.seed, "seed", 1, "Random seed for the map.")
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

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, opts, logger); err != nil {
		logger.Error("pipeline-gui failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts options, logger *zap.Logger) error {
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	imguiBackend := debugui_ebiten.NewImguiBackend("Render Pipeline - Colonies", screenWidth, screenHeight)

	registry := ecs.NewComponentRegistry()
	sprite.RegisterComponents(registry)
	registerColonyComponents(registry)
	debugui.RegisterDebugUIComponents(registry)

	canvas := spriteebiten.NewCanvas(screenWidth, screenHeight)
	backend := sprite.NewBackend(canvas)
	app, err := render.New(registry, backend, cfg.Pipeline.Options(logger)...)
	if err != nil {
		return err
	}
	if err := sprite.Install(app, backend); err != nil {
		return err
	}

	sim := newColonyWorld(registry, opts)

	scheduler := ecs.NewScheduler(sim)
	if cfg.Pipeline.Workers > 0 {
		scheduler.Stage().SetWorkerLimit(cfg.Pipeline.Workers)
	}
	registerColonySystems(scheduler)

	ecs.NewSingleton[InputState](sim)
	debugui.SpawnDebugUI(sim, app, sim)
	spawnColonyPanel(sim)

	ui := ecs.NewScheduler(sim)
	ui.Register(&debugui.ImguiSystem{})
	ui.Register(&CameraControlSystem{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	game := &Game{
		ctx:       ctx,
		sim:       sim,
		ui:        ui,
		scheduler: scheduler,
		app:       app,
		canvas:    canvas,
		imgui:     imguiBackend,
	}

	logger.Info("gui started",
		zap.Int("colonies", opts.colonies),
		zap.Int("resources", opts.resources),
		zap.Bool("queue_write_back", app.QueueWriteBack()),
	)
	err = ebiten.RunGame(game)
	stats := app.Stats()
	logger.Info("gui stopped", zap.Uint64("frames", stats.Frames), zap.Uint64("failures", stats.Failures))
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// newColonyWorld builds the simulation world: resources scattered over the map
// and colonies spread along its diagonals.
func newColonyWorld(registry *ecs.ComponentRegistry, opts options) *ecs.World {
	sim := ecs.NewWorld(registry)
	rng := rand.New(rand.NewSource(opts.seed))
	bounds := WorldBounds{Width: max(opts.size, 1), Height: max(opts.size, 1)}

	ecs.InsertResource(sim, bounds)
	ecs.InsertResource(sim, sprite.Camera{Zoom: 0.5, CellSize: 16})

	spawnResources(sim, opts.resources, bounds, rng)
	for i := 0; i < opts.colonies; i++ {
		x := float32(bounds.Width) * (0.2 + 0.6*float32(i%2))
		y := float32(bounds.Height) * (0.2 + 0.6*float32((i/2)%2))
		color := pastelColors[i%len(pastelColors)]
		spawnColony(sim, fmt.Sprintf("Colony %d", i+1), x, y, color, opts.colonists, rng)
	}
	return sim
}
