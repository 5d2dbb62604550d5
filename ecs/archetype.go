package ecs

import (
	"reflect"
	"slices"
)

type byTypeName []reflect.Type

func (a byTypeName) Len() int           { return len(a) }
func (a byTypeName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byTypeName) Less(i, j int) bool { return a[i].String() < a[j].String() }

// Archetype represents a unique combination of component types. It owns row
// assignment for its columns and remembers which entity lives in each row.
type Archetype struct {
	id       uint32
	types    []reflect.Type
	storages []iComponentStorage
	rows     []EntityId
	used     []bool
	freeRows []uint32
	count    int
}

// NewArchetype creates a new archetype with the given ID and sorted component types
func NewArchetype(id uint32, types []reflect.Type, registry *ComponentRegistry) *Archetype {
	a := &Archetype{
		id:       id,
		types:    types,
		storages: make([]iComponentStorage, len(types)),
	}

	// Initialize storage for each component type
	for idx, typ := range types {
		factory := registry.getFactory(typ)
		if factory == nil {
			panic("component type " + typ.String() + " not registered")
		}
		a.storages[idx] = factory()
	}

	return a
}

// insert places an entity into this archetype with the given components and
// returns its row
func (a *Archetype) insert(entity EntityId, components []any) uint32 {
	var row uint32
	if n := len(a.freeRows); n > 0 {
		row = a.freeRows[n-1]
		a.freeRows = a.freeRows[:n-1]
		a.rows[row] = entity
		a.used[row] = true
	} else {
		row = uint32(len(a.rows))
		a.rows = append(a.rows, entity)
		a.used = append(a.used, true)
	}

	for _, comp := range components {
		compType := reflect.TypeOf(comp)
		if compType.Kind() == reflect.Ptr {
			compType = compType.Elem()
		}

		if idx := a.storageIndex(compType); idx >= 0 {
			a.storages[idx].Set(int(row), comp)
		}
	}

	a.count++
	return row
}

// remove frees a row; the row is reused by the next insert
func (a *Archetype) remove(row uint32) {
	if int(row) >= len(a.used) || !a.used[row] {
		return
	}
	for _, storage := range a.storages {
		storage.Delete(int(row))
	}
	a.used[row] = false
	a.rows[row] = 0
	a.freeRows = append(a.freeRows, row)
	a.count--
}

// clear drops every row while keeping the column blocks allocated
func (a *Archetype) clear() {
	for _, storage := range a.storages {
		storage.Clear()
	}
	a.rows = a.rows[:0]
	a.used = a.used[:0]
	a.freeRows = a.freeRows[:0]
	a.count = 0
}

// GetComponent returns the component of the given type stored in row
func (a *Archetype) GetComponent(row uint32, compType reflect.Type) any {
	idx := a.storageIndex(compType)
	if idx == -1 {
		return nil
	}
	return a.storages[idx].Get(int(row))
}

func (a *Archetype) storageIndex(compType reflect.Type) int {
	for i, typ := range a.types {
		if typ == compType {
			return i
		}
	}
	return -1
}

// HasComponent checks if this archetype has the given component type
func (a *Archetype) HasComponent(compType reflect.Type) bool {
	return slices.Contains(a.types, compType)
}

// ID returns the archetype's unique identifier
func (a *Archetype) ID() uint32 {
	return a.id
}

// Types returns the sorted component types for this archetype
func (a *Archetype) Types() []reflect.Type {
	return a.types
}

// Len returns the number of entities stored in this archetype
func (a *Archetype) Len() int {
	return a.count
}

// Iter returns an iterator over all live EntityIds in this archetype
func (a *Archetype) Iter() func(yield func(EntityId) bool) {
	return func(yield func(EntityId) bool) {
		for row, id := range a.rows {
			if !a.used[row] {
				continue
			}
			if !yield(id) {
				return
			}
		}
	}
}

// iterRows yields every used row with its entity
func (a *Archetype) iterRows() func(yield func(uint32, EntityId) bool) {
	return func(yield func(uint32, EntityId) bool) {
		for row, id := range a.rows {
			if !a.used[row] {
				continue
			}
			if !yield(uint32(row), id) {
				return
			}
		}
	}
}
