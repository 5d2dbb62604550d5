package render

import (
	"context"

	"github.com/plus3/renderworld/ecs"
)

// Backend is the rendering device behind the Render stage. Setup runs once when
// the App is built and stores device or surface handles as render world
// resources; Render runs every frame as the Render stage's only system.
type Backend interface {
	Setup(world *ecs.World) error
	Render(ctx context.Context, world *ecs.World) error
}

// NopBackend renders nothing. It is useful for headless runs and tests.
type NopBackend struct{}

func (NopBackend) Setup(*ecs.World) error                   { return nil }
func (NopBackend) Render(context.Context, *ecs.World) error { return nil }

// renderSystem is the Render stage's default system. The App sets ctx before the
// stage runs.
type renderSystem struct {
	backend Backend
	ctx     context.Context
}

func (r *renderSystem) Name() string { return "render" }

func (r *renderSystem) Execute(frame *ecs.UpdateFrame) error {
	return r.backend.Render(r.ctx, frame.World)
}
