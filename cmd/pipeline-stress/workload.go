package main

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"
	"slices"

	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/render"
)

// Simulation components
type Transform struct {
	X, Y, Z float32
}

type Velocity struct {
	DX, DY, DZ float32
}

type Tint struct {
	R, G, B, A uint8
}

type Lifetime struct {
	Remaining float32
}

// Render components
type RenderTransform struct {
	X, Y, Z float32
}

type RenderTint struct {
	Key uint32
}

// Render resources
type Bounds struct {
	MinX, MinY, MaxX, MaxY float32
}

type Batch struct {
	Key   uint32
	Count int
	Depth float32
}

type Batches struct {
	Items []Batch
	index map[uint32]int
}

func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Transform](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Tint](registry)
	ecs.RegisterComponent[Lifetime](registry)
	ecs.RegisterComponent[RenderTransform](registry)
	ecs.RegisterComponent[RenderTint](registry)
}

func SpawnRandomEntity(world *ecs.World, rng *rand.Rand) ecs.EntityId {
	components := []any{
		Transform{X: rng.Float32() * 1000, Y: rng.Float32() * 1000},
		Velocity{DX: rng.Float32()*2 - 1, DY: rng.Float32()*2 - 1},
	}
	if rng.Intn(2) == 0 {
		components = append(components, Tint{R: uint8(rng.Intn(4)), G: uint8(rng.Intn(4)), B: 0, A: 255})
	}
	if rng.Intn(4) == 0 {
		components = append(components, Lifetime{Remaining: rng.Float32() * 5})
	}
	return world.Spawn(components...)
}

// MovementSystem integrates velocities. Movement systems write the same component,
// so they run one after the other.
type MovementSystem struct {
	Entities ecs.Query[struct {
		*Transform
		*Velocity
	}]
	Scale float32
}

func (s *MovementSystem) Execute(frame *ecs.UpdateFrame) error {
	dt := float32(frame.DeltaTime) * s.Scale
	for item := range s.Entities.Values() {
		item.Transform.X += item.Velocity.DX * dt
		item.Transform.Y += item.Velocity.DY * dt
	}
	return nil
}

func (s *MovementSystem) Name() string { return fmt.Sprintf("movement(x%.1f)", s.Scale) }

func (s *MovementSystem) Access() ecs.Access {
	return ecs.Write[Transform]().Merge(ecs.Read[Velocity]())
}

// LifetimeSystem replaces expired entities with fresh ones, which keeps the
// simulation's identifiers churning.
type LifetimeSystem struct {
	Entities ecs.Query[struct{ *Lifetime }]
	rng      *rand.Rand
}

func (s *LifetimeSystem) Execute(frame *ecs.UpdateFrame) error {
	dt := float32(frame.DeltaTime)
	for id, item := range s.Entities.Iter() {
		item.Remaining -= dt
		if item.Remaining > 0 {
			continue
		}
		frame.Commands.Delete(id)
		frame.Commands.Spawn(
			Transform{X: s.rng.Float32() * 1000, Y: s.rng.Float32() * 1000},
			Velocity{DX: 1},
			Lifetime{Remaining: s.rng.Float32() * 5},
		)
	}
	return nil
}

func (s *LifetimeSystem) Access() ecs.Access {
	return ecs.Write[Lifetime]()
}

// RegisterSimulationSystems registers n systems on the simulation scheduler.
func RegisterSimulationSystems(scheduler *ecs.Scheduler, n int, rng *rand.Rand) {
	scheduler.Register(&LifetimeSystem{rng: rng})
	for i := 1; i < n; i++ {
		scheduler.Register(&MovementSystem{Scale: 1 / float32(i)})
	}
}

type extractTransforms struct {
	Entities ecs.Query[struct{ *Transform }]
}

func (s *extractTransforms) Execute(frame *ecs.UpdateFrame) error {
	for id, item := range s.Entities.Iter() {
		frame.Commands.GetOrSpawn(id, RenderTransform(*item.Transform))
	}
	return nil
}

func (s *extractTransforms) Access() ecs.Access { return ecs.Read[Transform]() }

type extractTints struct {
	Entities ecs.Query[struct{ *Tint }]
}

func (s *extractTints) Execute(frame *ecs.UpdateFrame) error {
	for id, item := range s.Entities.Iter() {
		key := uint32(item.R)<<24 | uint32(item.G)<<16 | uint32(item.B)<<8 | uint32(item.A)
		frame.Commands.GetOrSpawn(id, RenderTint{Key: key})
	}
	return nil
}

func (s *extractTints) Access() ecs.Access { return ecs.Read[Tint]() }

type prepareBounds struct {
	Entities ecs.Query[struct{ *RenderTransform }]
	Bounds   ecs.Singleton[Bounds]
}

func (s *prepareBounds) Execute(frame *ecs.UpdateFrame) error {
	bounds := s.Bounds.Get()
	if bounds == nil {
		return &ecs.MissingResourceError{Type: reflect.TypeFor[Bounds]()}
	}
	*bounds = Bounds{}
	first := true
	for item := range s.Entities.Values() {
		if first {
			*bounds = Bounds{MinX: item.X, MinY: item.Y, MaxX: item.X, MaxY: item.Y}
			first = false
			continue
		}
		bounds.MinX = min(bounds.MinX, item.X)
		bounds.MinY = min(bounds.MinY, item.Y)
		bounds.MaxX = max(bounds.MaxX, item.X)
		bounds.MaxY = max(bounds.MaxY, item.Y)
	}
	return nil
}

func (s *prepareBounds) Access() ecs.Access {
	return ecs.Read[RenderTransform]().Merge(ecs.Write[Bounds]())
}

type queueBatches struct {
	Entities ecs.Query[struct {
		*RenderTransform
		Tint *RenderTint `ecs:"optional"`
	}]
	Batches ecs.Singleton[Batches]
}

func (s *queueBatches) Execute(frame *ecs.UpdateFrame) error {
	batches := s.Batches.Get()
	if batches == nil {
		return &ecs.MissingResourceError{Type: reflect.TypeFor[Batches]()}
	}
	for item := range s.Entities.Values() {
		var key uint32
		if item.Tint != nil {
			key = item.Tint.Key
		}
		i, ok := batches.index[key]
		if !ok {
			i = len(batches.Items)
			batches.index[key] = i
			batches.Items = append(batches.Items, Batch{Key: key})
		}
		batches.Items[i].Count++
		batches.Items[i].Depth += item.Z
	}
	return nil
}

func (s *queueBatches) Access() ecs.Access {
	return ecs.Read[RenderTransform]().Merge(ecs.Read[RenderTint](), ecs.Write[Batches]())
}

type sortBatches struct {
	Batches ecs.Singleton[Batches]
}

func (s *sortBatches) Execute(frame *ecs.UpdateFrame) error {
	batches := s.Batches.Get()
	slices.SortFunc(batches.Items, func(a, b Batch) int {
		return b.Count - a.Count
	})
	return nil
}

func (s *sortBatches) Access() ecs.Access { return ecs.Write[Batches]() }

type resetBatches struct {
	Batches ecs.Singleton[Batches]
}

func (s *resetBatches) Execute(frame *ecs.UpdateFrame) error {
	batches := s.Batches.Get()
	batches.Items = batches.Items[:0]
	clear(batches.index)
	return nil
}

func (s *resetBatches) Access() ecs.Access { return ecs.Write[Batches]() }

// batchBackend stands in for a GPU: it inserts its resources at setup and counts
// what it would have drawn.
type batchBackend struct {
	drawCalls int64
	instances int64
}

func (b *batchBackend) Setup(world *ecs.World) error {
	ecs.InsertResource(world, Bounds{})
	ecs.InsertResource(world, Batches{index: make(map[uint32]int)})
	return nil
}

func (b *batchBackend) Render(_ context.Context, world *ecs.World) error {
	batches, err := ecs.GetResource[Batches](world)
	if err != nil {
		return err
	}
	for _, batch := range batches.Items {
		b.drawCalls++
		b.instances += int64(batch.Count)
	}
	return nil
}

// InstallRenderSystems registers the render pipeline's systems.
func InstallRenderSystems(app *render.App) error {
	systems := []struct {
		stage  render.RenderStage
		system ecs.System
	}{
		{render.Extract, &extractTransforms{}},
		{render.Extract, &extractTints{}},
		{render.Prepare, &prepareBounds{}},
		{render.Queue, &queueBatches{}},
		{render.PhaseSort, &sortBatches{}},
		{render.Cleanup, &resetBatches{}},
	}
	for _, s := range systems {
		if err := app.AddSystem(s.stage, s.system); err != nil {
			return err
		}
	}
	return nil
}
