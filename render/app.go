package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plus3/renderworld/ecs"
	"go.uber.org/zap"
)

// App owns the render world and the stage pipeline that fills it from a
// simulation world once per frame.
type App struct {
	world    *ecs.World
	schedule *ecs.Schedule
	stages   [stageCount]*ecs.Stage
	scratch  *ScratchCache
	backend  Backend
	render   *renderSystem
	logger   *zap.Logger

	queueWriteBack bool
	workers        int

	frame     uint64
	dt        float64
	lastFrame time.Duration
	failures  uint64
}

// FrameStats summarizes the App's frames so far.
type FrameStats struct {
	Frames         uint64
	Failures       uint64
	LastFrame      time.Duration
	ScratchCreated int
	Stages         []ecs.StageStats
	World          ecs.WorldStats
}

// New creates an App whose render world uses registry, and runs backend.Setup on
// it. A nil backend renders nothing.
func New(registry *ecs.ComponentRegistry, backend Backend, opts ...Option) (*App, error) {
	if backend == nil {
		backend = NopBackend{}
	}

	a := &App{
		world:    ecs.NewWorld(registry),
		schedule: ecs.NewSchedule(),
		scratch:  NewScratchCache(),
		backend:  backend,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, stage := range RenderStages() {
		s := ecs.NewStage(stage.String())
		if a.workers > 0 {
			s.SetWorkerLimit(a.workers)
		}
		a.stages[stage] = s
		a.schedule.AddStage(s)
	}
	// Extract systems run on the simulation world but record commands for the
	// render world; the exchange step applies them once the render world is back.
	a.stages[Extract].SetApplyBuffers(false)
	if a.queueWriteBack {
		a.stages[Queue].SetApplyBuffers(false)
	}

	a.render = &renderSystem{backend: backend, ctx: context.Background()}
	a.stages[Render].Register(a.render, ecs.ExclusiveAccess())

	if err := backend.Setup(a.world); err != nil {
		return nil, fmt.Errorf("backend setup: %w", err)
	}
	return a, nil
}

// World returns the render world
func (a *App) World() *ecs.World {
	return a.world
}

// Scratch returns the App's scratch cache
func (a *App) Scratch() *ScratchCache {
	return a.scratch
}

// QueueWriteBack reports whether the Queue stage borrows the simulation world
func (a *App) QueueWriteBack() bool {
	return a.queueWriteBack
}

// Frame returns the number of frames started so far
func (a *App) Frame() uint64 {
	return a.frame
}

// AddSystem registers system in stage. Stages outside the closed RenderStage set
// yield a StageNotFoundError.
func (a *App) AddSystem(stage RenderStage, system ecs.System, access ...ecs.Access) error {
	return a.schedule.Register(stage.String(), system, access...)
}

// Stage returns the ecs stage behind a render stage
func (a *App) Stage(stage RenderStage) (*ecs.Stage, error) {
	return a.schedule.Stage(stage.String())
}

// ReserveParity marks every identifier the simulation world has ever handed out
// as reserved in the render world, so render entities can be created with the
// same identifiers and anonymous render spawns never take one of them.
func (a *App) ReserveParity(sim *ecs.World) {
	entities := a.world.Entities()
	entities.ReserveThrough(sim.Entities().Len())
	entities.FlushAsInvalid()
}

// Update runs one frame: every stage in order, then the render world's entities
// are dropped. Render world resources persist across frames. A stage error fails
// the frame with a FrameError; a cancelled ctx abandons it and returns ctx.Err().
func (a *App) Update(ctx context.Context, sim *ecs.World, dt float64) error {
	start := time.Now()
	a.frame++
	a.dt = dt
	a.render.ctx = ctx

	a.ReserveParity(sim)

	for _, stage := range RenderStages() {
		if err := a.runStage(ctx, stage, sim); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				a.world.ClearEntities()
				return ctxErr
			}
			return a.fail(stage, err)
		}
	}
	a.world.ClearEntities()

	a.lastFrame = time.Since(start)
	if ce := a.logger.Check(zap.DebugLevel, "frame complete"); ce != nil {
		fields := []zap.Field{
			zap.Uint64("frame", a.frame),
			zap.Duration("duration", a.lastFrame),
		}
		for _, stage := range RenderStages() {
			fields = append(fields, zap.Duration(stage.String(), a.stages[stage].Stats().LastDuration))
		}
		ce.Write(fields...)
	}
	return nil
}

func (a *App) runStage(ctx context.Context, stage RenderStage, sim *ecs.World) error {
	switch stage {
	case Extract:
		return a.Extract(ctx, sim)
	case Queue:
		return a.Queue(ctx, sim)
	default:
		return a.stages[stage].Run(ctx, a.world, a.dt)
	}
}

// fail wraps err in a FrameError and logs it. The render world's entities are
// dropped so the next frame starts from a clean slate.
func (a *App) fail(stage RenderStage, err error) error {
	a.failures++
	a.world.ClearEntities()

	fields := []zap.Field{
		zap.Uint64("frame", a.frame),
		zap.Stringer("stage", stage),
		zap.Error(err),
	}
	var missing *ecs.MissingResourceError
	if errors.As(err, &missing) {
		fields = append(fields, zap.Stringer("resource", missing.Type))
	}
	var notFound *ecs.StageNotFoundError
	if errors.As(err, &notFound) {
		fields = append(fields, zap.String("stage_name", notFound.Name))
	}
	var collision *ecs.IdentifierCollisionError
	if errors.As(err, &collision) {
		fields = append(fields, zap.Stringer("entity", collision.Id))
	}
	a.logger.Error("frame failed", fields...)

	return &FrameError{Frame: a.frame, Stage: stage, Err: err}
}

// Run drives frames at the given interval until ctx is cancelled or a frame
// fails. When tick is non-nil it runs before every frame to advance the
// simulation world.
func (a *App) Run(ctx context.Context, sim *ecs.World, interval time.Duration, tick func(dt float64) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()
	a.logger.Info("render loop started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("render loop stopped", zap.Uint64("frames", a.frame))
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now

			if tick != nil {
				if err := tick(dt); err != nil {
					return fmt.Errorf("simulation tick: %w", err)
				}
			}
			if err := a.Update(ctx, sim, dt); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// Stats returns frame counters and the per-stage timings.
func (a *App) Stats() FrameStats {
	stats := FrameStats{
		Frames:         a.frame,
		Failures:       a.failures,
		LastFrame:      a.lastFrame,
		ScratchCreated: a.scratch.Created(),
		World:          a.world.CollectStats(),
	}
	for _, stage := range a.schedule.Stages() {
		stats.Stages = append(stats.Stages, stage.Stats())
	}
	return stats
}
