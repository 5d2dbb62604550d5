package ecs_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/plus3/renderworld/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceLifecycle(t *testing.T) {
	world := newTestWorld()

	_, err := ecs.GetResource[Clock](world)
	assert.ErrorIs(t, err, ecs.ErrMissingResource)

	ecs.InsertResource(world, Clock{Tick: 1})
	assert.True(t, ecs.HasResource[Clock](world))

	clock, err := ecs.GetResource[Clock](world)
	require.NoError(t, err)
	clock.Tick++

	again, err := ecs.GetResource[Clock](world)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Tick)

	removed, err := ecs.RemoveResource[Clock](world)
	require.NoError(t, err)
	assert.Equal(t, 2, removed.Tick)
	assert.False(t, ecs.HasResource[Clock](world))

	_, err = ecs.RemoveResource[Clock](world)
	var missing *ecs.MissingResourceError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, reflect.TypeFor[Clock](), missing.Type)
}

func TestInsertResourceOverwritesInPlace(t *testing.T) {
	world := newTestWorld()

	ecs.InsertResource(world, Clock{Tick: 1})
	before, _ := ecs.GetResource[Clock](world)

	ecs.InsertResource(world, Clock{Tick: 5})
	assert.Equal(t, 5, before.Tick, "earlier pointers observe the new value")

	world.InsertResource(Clock{Tick: 9})
	assert.Equal(t, 9, before.Tick)
}

func TestResourceTypes(t *testing.T) {
	world := newTestWorld()
	world.AddSingleton(Gravity{G: 9.8})
	ecs.InsertResource(world, Clock{})

	assert.Equal(t, []reflect.Type{reflect.TypeFor[Clock](), reflect.TypeFor[Gravity]()}, world.ResourceTypes())
	assert.True(t, world.HasResourceType(reflect.TypeFor[Gravity]()))
}

func TestInsertNilResourcePanics(t *testing.T) {
	world := newTestWorld()
	assert.Panics(t, func() {
		world.InsertResource(nil)
	})
}

func TestSingleton(t *testing.T) {
	t.Run("initializer only applies to missing slot", func(t *testing.T) {
		world := newTestWorld()

		clock := ecs.NewSingleton(world, Clock{Tick: 4})
		assert.Equal(t, 4, clock.Get().Tick)

		other := ecs.NewSingleton(world, Clock{Tick: 100})
		assert.Equal(t, 4, other.Get().Tick)
		assert.Same(t, clock.Get(), other.Get())
	})

	t.Run("zero value without initializer", func(t *testing.T) {
		world := newTestWorld()
		gravity := ecs.NewSingleton[Gravity](world)
		require.True(t, gravity.Exists())
		assert.Equal(t, float32(0), gravity.Get().G)
	})

	t.Run("unbound singleton is empty", func(t *testing.T) {
		var s ecs.Singleton[Clock]
		assert.Nil(t, s.Get())
		assert.False(t, s.Exists())
	})

	t.Run("sees removal and reinsertion", func(t *testing.T) {
		world := newTestWorld()
		clock := ecs.NewSingleton(world, Clock{Tick: 1})

		_, err := ecs.RemoveResource[Clock](world)
		require.NoError(t, err)
		assert.False(t, clock.Exists())

		ecs.InsertResource(world, Clock{Tick: 7})
		require.True(t, clock.Exists())
		assert.Equal(t, 7, clock.Get().Tick)
	})
}

func TestSingletonFollowsExchange(t *testing.T) {
	registry := newTestRegistry()
	slot := ecs.NewWorld(registry)
	scratch := ecs.NewScratchWorld(registry)

	clock := ecs.NewSingleton(slot, Clock{Tick: 1})
	require.Equal(t, 1, clock.Get().Tick)

	slot.Exchange(scratch)
	assert.Nil(t, clock.Get(), "the slot's contents are on loan")

	ecs.InsertResource(slot, Clock{Tick: 50})
	assert.Equal(t, 50, clock.Get().Tick)

	slot.Exchange(scratch)
	assert.Equal(t, 1, clock.Get().Tick, "original contents are back")
}
