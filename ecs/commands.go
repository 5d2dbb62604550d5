package ecs

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

// Commands provides a buffer for deferred ECS operations. Each system owns its
// own buffer; the stage applies the buffers once its systems are done, against
// whichever world the stage designates.
type Commands struct {
	spawns     []spawnCommand
	spawnsAt   []spawnAtCommand
	deletes    []EntityId
	adds       []addComponentCommand
	removes    []removeComponentCommand
	resources  []any
	defers     []deferCommand
	despawned  *intmap.Map[EntityId, struct{}]
	queueCount int
}

func newCommands() *Commands {
	return &Commands{
		despawned: intmap.New[EntityId, struct{}](16),
	}
}

type deferCommand struct {
	fn func(*World)
}

type spawnCommand struct {
	components []any
}

type spawnAtCommand struct {
	entity     EntityId
	components []any
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType reflect.Type
}

// Len returns the number of queued operations.
func (c *Commands) Len() int {
	return c.queueCount
}

// Defer queues a function that runs against the target world when the buffer is applied.
func (c *Commands) Defer(fn func(*World)) {
	c.defers = append(c.defers, deferCommand{fn: fn})
	c.queueCount++
}

// Spawn queues an entity spawn operation with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
	c.queueCount++
}

// GetOrSpawn queues the creation of the entity with identifier entity (if needed)
// and the insertion of components onto it. This is how extract systems mirror a
// simulation entity into the render world.
func (c *Commands) GetOrSpawn(entity EntityId, components ...any) {
	c.spawnsAt = append(c.spawnsAt, spawnAtCommand{entity: entity, components: components})
	c.queueCount++
}

// Delete queues an entity deletion operation.
func (c *Commands) Delete(entity EntityId) {
	c.deletes = append(c.deletes, entity)
	c.queueCount++
}

// AddComponent queues a component addition operation.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: component,
	})
	c.queueCount++
}

// RemoveComponent queues a component removal operation.
func (c *Commands) RemoveComponent(entity EntityId, compType reflect.Type) {
	c.removes = append(c.removes, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
	c.queueCount++
}

// InsertResource queues a resource insertion.
func (c *Commands) InsertResource(value any) {
	c.resources = append(c.resources, value)
	c.queueCount++
}

// Flush applies all queued commands to world and resets the buffer. Identifier
// claims run first so later additions can target the claimed entities. The first
// failing claim aborts the flush; the buffer is reset either way.
func (c *Commands) Flush(world *World) error {
	defer c.reset()

	for _, cmd := range c.spawnsAt {
		if _, err := world.GetOrSpawn(cmd.entity); err != nil {
			return err
		}
		for _, comp := range cmd.components {
			world.AddComponent(cmd.entity, comp)
		}
	}

	for _, id := range c.deletes {
		world.Despawn(id)
		c.despawned.Put(id, struct{}{})
	}

	for _, cmd := range c.removes {
		if !c.wasDespawned(cmd.entity) {
			world.RemoveComponent(cmd.entity, cmd.compType)
		}
	}

	for _, cmd := range c.adds {
		if !c.wasDespawned(cmd.entity) {
			world.AddComponent(cmd.entity, cmd.component)
		}
	}

	for _, cmd := range c.spawns {
		world.Spawn(cmd.components...)
	}

	for _, res := range c.resources {
		world.InsertResource(res)
	}

	for _, df := range c.defers {
		df.fn(world)
	}

	return nil
}

func (c *Commands) wasDespawned(id EntityId) bool {
	_, ok := c.despawned.Get(id)
	return ok
}

func (c *Commands) reset() {
	clear(c.spawns)
	clear(c.spawnsAt)
	clear(c.adds)
	clear(c.resources)
	clear(c.defers)
	c.spawns = c.spawns[:0]
	c.spawnsAt = c.spawnsAt[:0]
	c.deletes = c.deletes[:0]
	c.adds = c.adds[:0]
	c.removes = c.removes[:0]
	c.resources = c.resources[:0]
	c.defers = c.defers[:0]
	c.despawned.Clear()
	c.queueCount = 0
}
