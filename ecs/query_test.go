package ecs_test

import (
	"testing"

	"github.com/plus3/renderworld/ecs"
	"github.com/stretchr/testify/assert"
)

func TestQueryRequiresExecute(t *testing.T) {
	query := ecs.NewQuery[movable](newTestWorld())

	assert.Panics(t, func() { query.Iter() })
	assert.Panics(t, func() { query.Values() })
}

func TestQuerySnapshotsPerExecute(t *testing.T) {
	world := newTestWorld()
	world.Spawn(Position{X: 1}, Velocity{})

	query := ecs.NewQuery[movable](world)
	query.Execute()
	assert.Equal(t, 1, query.Len())

	world.Spawn(Position{X: 2}, Velocity{})
	assert.Equal(t, 1, query.Len(), "cache holds until the next Execute")

	query.Execute()
	assert.Equal(t, 2, query.Len())
}

func TestQueryPicksUpNewArchetypes(t *testing.T) {
	world := newTestWorld()
	world.Spawn(Position{}, Velocity{})

	query := ecs.NewQuery[movable](world)
	query.Execute()
	assert.Equal(t, 1, query.Len())

	world.Spawn(Position{}, Velocity{}, Health{})
	world.Spawn(Position{}, Velocity{}, Name{})
	query.Execute()
	assert.Equal(t, 3, query.Len())

	var total int
	for range query.Values() {
		total++
	}
	assert.Equal(t, 3, total)
}

func TestQueryFollowsExchange(t *testing.T) {
	registry := newTestRegistry()
	slot := ecs.NewWorld(registry)
	other := ecs.NewWorld(registry)

	slot.Spawn(Position{}, Velocity{})
	other.Spawn(Position{}, Velocity{})
	other.Spawn(Position{}, Velocity{})

	query := ecs.NewQuery[movable](slot)
	query.Execute()
	assert.Equal(t, 1, query.Len())

	slot.Exchange(other)
	query.Execute()
	assert.Equal(t, 2, query.Len(), "the query reads whatever the slot currently holds")
}

func TestQueryIterYieldsIds(t *testing.T) {
	world := newTestWorld()
	id := world.Spawn(Position{X: 3}, Velocity{DX: 1})

	query := ecs.NewQuery[movable](world)
	query.Execute()

	for got, item := range query.Iter() {
		assert.Equal(t, id, got)
		item.Position.X += item.Velocity.DX
	}
	assert.Equal(t, float32(4), ecs.ReadComponent[Position](world, id).X)
}
