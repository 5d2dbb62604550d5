package ecs

import (
	"reflect"
)

// Singleton provides efficient access to a single resource value that is not
// associated with any entity. Use this for global state, configuration, or
// backend handles.
//
// The cached pointer is revalidated whenever the world's contents are exchanged
// or a resource slot is added or removed, so a Singleton bound to a world handle
// never reads a slot that moved away with a loan.
type Singleton[T any] struct {
	world         *World
	componentPtr  *T
	data          *worldData
	version       uint64
	componentType reflect.Type
}

// NewSingleton creates a new Singleton accessor for the given world.
// If initializer is provided and the resource doesn't exist yet,
// it will be created with the initializer value. Otherwise, a zero value is used.
// This guarantees the resource exists after the call.
func NewSingleton[T any](world *World, initializer ...T) *Singleton[T] {
	if !HasResource[T](world) {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		InsertResource(world, value)
	}

	s := &Singleton[T]{}
	s.Init(world)
	return s
}

// Init binds the Singleton to a world.
// This is called automatically by Stage during system registration.
func (s *Singleton[T]) Init(world *World) {
	s.world = world
	s.componentType = reflect.TypeFor[T]()
	s.data = nil
	s.updateCache()
}

// Get returns a pointer to the resource.
// Returns nil if the resource is not present in the world.
func (s *Singleton[T]) Get() *T {
	s.revalidate()
	return s.componentPtr
}

func (s *Singleton[T]) revalidate() {
	if s.world == nil {
		return
	}
	if s.data != s.world.data || s.version != s.world.data.resourceVersion {
		s.updateCache()
	}
}

// updateCache refreshes the cached pointer from the world
func (s *Singleton[T]) updateCache() {
	if s.world == nil {
		return
	}
	s.data = s.world.data
	s.version = s.world.data.resourceVersion
	s.componentPtr, _ = s.world.getResourceBox(s.componentType).(*T)
}

// Exists returns true if the resource is present in the world
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}
