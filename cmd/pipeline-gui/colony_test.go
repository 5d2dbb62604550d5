package main

import (
	"context"
	"image/color"
	"testing"

	"github.com/plus3/renderworld/backend/sprite"
	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestColony(t *testing.T) (*ecs.World, *ecs.Scheduler, ecs.EntityId, ecs.EntityId) {
	t.Helper()
	registry := ecs.NewComponentRegistry()
	sprite.RegisterComponents(registry)
	registerColonyComponents(registry)

	sim := ecs.NewWorld(registry)
	home := sim.Spawn(sprite.Position{X: 0, Y: 0}, Colony{Name: "home"})
	tree := sim.Spawn(
		sprite.Position{X: 3, Y: 4},
		sprite.Sprite{Scale: resourceScale},
		Resource{Kind: ResourceTree, Amount: 2, Max: 2},
	)
	sim.Spawn(
		sprite.Position{X: 30, Y: 40},
		sprite.Sprite{Scale: resourceScale},
		Resource{Kind: ResourceRock, Amount: 5, Max: 5},
	)

	scheduler := ecs.NewScheduler(sim)
	registerColonySystems(scheduler)
	return sim, scheduler, home, tree
}

func TestColonistGathersNearestResource(t *testing.T) {
	sim, scheduler, home, tree := newTestColony(t)
	worker := sim.Spawn(sprite.Position{}, Colonist{Colony: home, Speed: 5}, Task{})

	require.NoError(t, scheduler.Once(0.5))
	task := ecs.ReadComponent[Task](sim, worker)
	assert.Equal(t, TaskGather, task.Kind)
	assert.Equal(t, tree, task.Target)

	// arrives on the second tick and works for a second
	for i := 0; i < 2; i++ {
		require.NoError(t, scheduler.Once(0.5))
	}
	assert.Equal(t, TaskReturn, ecs.ReadComponent[Task](sim, worker).Kind)
	assert.Equal(t, 1, ecs.ReadComponent[Colonist](sim, worker).Carrying)
	assert.Equal(t, 1, ecs.ReadComponent[Resource](sim, tree).Amount)

	for i := 0; i < 2; i++ {
		require.NoError(t, scheduler.Once(0.5))
	}
	assert.Equal(t, TaskIdle, ecs.ReadComponent[Task](sim, worker).Kind)
	assert.Equal(t, 1, ecs.ReadComponent[Colony](sim, home).Stock)
	assert.Equal(t, 0, ecs.ReadComponent[Colonist](sim, worker).Carrying)
}

func TestRegrowthShrinksDepletedSprites(t *testing.T) {
	sim, scheduler, _, tree := newTestColony(t)

	res := ecs.ReadComponent[Resource](sim, tree)
	res.Amount = 0
	res.RegrowthRate = 1

	require.NoError(t, scheduler.Once(0.5))
	assert.Equal(t, float32(0), ecs.ReadComponent[sprite.Sprite](sim, tree).Scale)

	require.NoError(t, scheduler.Once(0.5))
	assert.Equal(t, 1, ecs.ReadComponent[Resource](sim, tree).Amount)
	assert.InDelta(t, resourceScale/2, ecs.ReadComponent[sprite.Sprite](sim, tree).Scale, 1e-6)
}

func TestIdleWithoutResources(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	sprite.RegisterComponents(registry)
	registerColonyComponents(registry)

	sim := ecs.NewWorld(registry)
	worker := sim.Spawn(sprite.Position{}, Colonist{Speed: 1}, Task{})

	scheduler := ecs.NewScheduler(sim)
	registerColonySystems(scheduler)
	require.NoError(t, scheduler.Once(1))
	assert.Equal(t, TaskIdle, ecs.ReadComponent[Task](sim, worker).Kind)
}

type countingCanvas struct {
	shapes int
}

func (c *countingCanvas) Size() (int, int)                          { return 800, 800 }
func (c *countingCanvas) Clear(color.RGBA)                          { c.shapes = 0 }
func (c *countingCanvas) FillCircle(_, _, _ float32, _ color.RGBA)  { c.shapes++ }
func (c *countingCanvas) FillRect(_, _, _, _ float32, _ color.RGBA) { c.shapes++ }

func TestColonyWorldRenders(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	sprite.RegisterComponents(registry)
	registerColonyComponents(registry)

	canvas := &countingCanvas{}
	backend := sprite.NewBackend(canvas)
	app, err := render.New(registry, backend)
	require.NoError(t, err)
	require.NoError(t, sprite.Install(app, backend))

	opts := options{colonies: 2, colonists: 3, resources: 10, size: 50, seed: 7}
	sim := newColonyWorld(registry, opts)
	scheduler := ecs.NewScheduler(sim)
	registerColonySystems(scheduler)

	for i := 0; i < 3; i++ {
		require.NoError(t, scheduler.Once(1.0/60))
		require.NoError(t, app.Update(context.Background(), sim, 1.0/60))
	}

	// 50 cells at zoom 0.5 and 16px cells is 400px, all on an 800px canvas
	assert.Equal(t, opts.colonies*(1+opts.colonists)+opts.resources, canvas.shapes)
	assert.Equal(t, 0, app.World().EntityCount())
}
