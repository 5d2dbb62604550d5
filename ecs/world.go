package ecs

import (
	"reflect"
	"sort"
	"unsafe"

	"github.com/kamstrup/intmap"
)

// World is a handle to a container of entities and resource slots. The contents
// behind a handle can be exchanged with another handle's contents, which is how a
// world moves between roles without being copied: whoever holds the handle keeps
// naming the same slot while the slot's contents are elsewhere.
type World struct {
	data *worldData
}

type worldData struct {
	registry        *ComponentRegistry
	entities        *Entities
	archetypes      *intmap.Map[uint32, *Archetype]
	archetypeList   []*Archetype
	resources       map[reflect.Type]any
	resourceVersion uint64
	placeholder     bool
}

// NewWorld creates an empty world whose components come from registry
func NewWorld(registry *ComponentRegistry) *World {
	return &World{data: newWorldData(registry)}
}

// NewScratchWorld creates an empty world marked as a placeholder. Scratch worlds
// fill a slot while that slot's real contents are on loan.
func NewScratchWorld(registry *ComponentRegistry) *World {
	w := NewWorld(registry)
	w.data.placeholder = true
	return w
}

func newWorldData(registry *ComponentRegistry) *worldData {
	return &worldData{
		registry:   registry,
		entities:   newEntities(),
		archetypes: intmap.New[uint32, *Archetype](64),
		resources:  make(map[reflect.Type]any),
	}
}

// Exchange swaps the contents of w and other. Neither world is copied.
func (w *World) Exchange(other *World) {
	w.data, other.data = other.data, w.data
}

// IsPlaceholder reports whether this slot currently holds scratch contents.
func (w *World) IsPlaceholder() bool {
	return w.data.placeholder
}

// Registry returns the component registry of the world's contents
func (w *World) Registry() *ComponentRegistry {
	return w.data.registry
}

// Entities returns the identifier allocator of the world's contents
func (w *World) Entities() *Entities {
	return w.data.entities
}

// EntityCount returns the number of live entities
func (w *World) EntityCount() int {
	return w.data.entities.AliveCount()
}

// Contains reports whether id is a live entity in this world
func (w *World) Contains(id EntityId) bool {
	return w.data.entities.Contains(id)
}

// GetArchetypes returns every archetype created so far, in creation order
func (w *World) GetArchetypes() []*Archetype {
	return w.data.archetypeList
}

// GetArchetype returns an archetype storage (if one exists)
func (w *World) GetArchetype(components ...any) *Archetype {
	types := extractComponentTypes(components)
	archetype, _ := w.data.archetypes.Get(hashTypesToUint32(types))
	return archetype
}

// GetArchetypeByTypes returns an archetype storage (if one exists) based on reflect.Type
func (w *World) GetArchetypeByTypes(types []reflect.Type) *Archetype {
	sorted := append([]reflect.Type(nil), types...)
	sort.Sort(byTypeName(sorted))
	archetype, _ := w.data.archetypes.Get(hashTypesToUint32(sorted))
	return archetype
}

func (w *World) archetypeFor(types []reflect.Type) *Archetype {
	archetypeId := hashTypesToUint32(types)
	archetype, exists := w.data.archetypes.Get(archetypeId)
	if !exists {
		archetype = NewArchetype(archetypeId, types, w.data.registry)
		w.data.archetypes.Put(archetypeId, archetype)
		w.data.archetypeList = append(w.data.archetypeList, archetype)
	}
	return archetype
}

// Spawn creates a new entity with an anonymous identifier and the provided components
func (w *World) Spawn(components ...any) EntityId {
	types := extractComponentTypes(components)
	id := w.data.entities.alloc()
	w.place(id, types, components)
	return id
}

// SpawnAt creates an entity with exactly the identifier id. It fails with
// ErrIdentifierCollision if id is alive or reserved but not yet flushed.
func (w *World) SpawnAt(id EntityId, components ...any) error {
	types := extractComponentTypes(components)
	if _, err := w.data.entities.claim(id, true); err != nil {
		return err
	}
	w.place(id, types, components)
	return nil
}

// GetOrSpawn returns the entity with identifier id, creating it without components
// if it does not exist yet. Identifiers past the allocator's end extend it.
func (w *World) GetOrSpawn(id EntityId) (EntityId, error) {
	created, err := w.data.entities.claim(id, false)
	if err != nil {
		return 0, err
	}
	if created {
		w.place(id, nil, nil)
	}
	return id, nil
}

func (w *World) place(id EntityId, types []reflect.Type, components []any) {
	archetype := w.archetypeFor(types)
	row := archetype.insert(id, components)
	meta := &w.data.entities.metas[id.Index()]
	meta.archetype = archetype
	meta.row = row
}

// Despawn removes the entity and all of its components
func (w *World) Despawn(id EntityId) bool {
	meta := w.data.entities.meta(id)
	if meta == nil {
		return false
	}
	meta.archetype.remove(meta.row)
	return w.data.entities.release(id)
}

// AddComponent attaches component to the entity, replacing any component of the
// same type. Returns false if the entity is not alive.
func (w *World) AddComponent(id EntityId, component any) bool {
	meta := w.data.entities.meta(id)
	if meta == nil {
		return false
	}

	compType := componentType(component)
	old := meta.archetype
	if idx := old.storageIndex(compType); idx >= 0 {
		old.storages[idx].Set(int(meta.row), component)
		return true
	}

	newTypes := make([]reflect.Type, 0, len(old.types)+1)
	newTypes = append(newTypes, old.types...)
	newTypes = append(newTypes, compType)
	sort.Sort(byTypeName(newTypes))

	w.relocate(id, meta, newTypes, compType, component)
	return true
}

// RemoveComponent detaches the component of compType. The entity stays alive even
// when it has no components left.
func (w *World) RemoveComponent(id EntityId, compType reflect.Type) bool {
	meta := w.data.entities.meta(id)
	if meta == nil || !meta.archetype.HasComponent(compType) {
		return false
	}

	newTypes := make([]reflect.Type, 0, len(meta.archetype.types)-1)
	for _, typ := range meta.archetype.types {
		if typ != compType {
			newTypes = append(newTypes, typ)
		}
	}

	w.relocate(id, meta, newTypes, nil, nil)
	return true
}

func (w *World) relocate(id EntityId, meta *entityMeta, types []reflect.Type, added reflect.Type, value any) {
	old := meta.archetype
	target := w.archetypeFor(types)

	components := make([]any, 0, len(types))
	for _, typ := range types {
		if typ == added {
			components = append(components, value)
			continue
		}
		components = append(components, old.GetComponent(meta.row, typ))
	}

	// insert copies the values out of the old columns before remove zeroes them
	row := target.insert(id, components)
	old.remove(meta.row)
	meta.archetype = target
	meta.row = row
}

// ArchetypeOf returns the archetype holding a live entity, or nil
func (w *World) ArchetypeOf(id EntityId) *Archetype {
	meta := w.data.entities.meta(id)
	if meta == nil {
		return nil
	}
	return meta.archetype
}

// GetComponent returns a pointer to the component of compType, or nil
func (w *World) GetComponent(id EntityId, compType reflect.Type) any {
	meta := w.data.entities.meta(id)
	if meta == nil {
		return nil
	}
	return meta.archetype.GetComponent(meta.row, compType)
}

// HasComponent checks if an entity has a specific component type
func (w *World) HasComponent(id EntityId, compType reflect.Type) bool {
	meta := w.data.entities.meta(id)
	if meta == nil {
		return false
	}
	return meta.archetype.HasComponent(compType)
}

// ClearEntities drops every entity, its components and the allocator state.
// Resource slots are untouched and column blocks stay allocated for reuse.
func (w *World) ClearEntities() {
	for _, archetype := range w.data.archetypeList {
		archetype.clear()
	}
	w.data.entities.Clear()
}

func componentType(component any) reflect.Type {
	compType := reflect.TypeOf(component)
	if compType.Kind() == reflect.Ptr {
		compType = compType.Elem()
	}
	return compType
}

// extractComponentTypes extracts and sorts component types from a slice of components
func extractComponentTypes(components []any) []reflect.Type {
	types := make([]reflect.Type, 0, len(components))
	for _, comp := range components {
		compType := componentType(comp)

		// Components can be structs or primitives (int, string, etc.)
		// But not pointers, maps, channels, or functions (those aren't value types)
		if compType.Kind() == reflect.Ptr || compType.Kind() == reflect.Map ||
			compType.Kind() == reflect.Chan || compType.Kind() == reflect.Func {
			panic("components cannot be pointers, maps, channels, or functions")
		}

		types = append(types, compType)
	}
	sort.Sort(byTypeName(types))
	return types
}

// hashTypesToUint32 generates a uint32 hash for a sorted slice of types
func hashTypesToUint32(types []reflect.Type) uint32 {
	var h uint32 = 2166136261     // FNV-1a 32-bit offset basis
	const prime uint32 = 16777619 // FNV-1a 32-bit prime

	for _, t := range types {
		// Use the type's pointer as a unique identifier
		ptr := (*iface)(unsafe.Pointer(&t)).data
		val := uint32(uintptr(ptr))

		// Mix in all 4 bytes if on 64-bit system
		if unsafe.Sizeof(uintptr(0)) == 8 {
			val ^= uint32(uintptr(ptr) >> 32)
		}

		h ^= val
		h *= prime
	}

	return h
}

type ComponentReader interface {
	GetComponent(EntityId, reflect.Type) any
}

// ReadComponent returns a typed pointer to the entity's component, or nil
func ReadComponent[T any](reader ComponentReader, entityId EntityId) *T {
	comp, _ := reader.GetComponent(entityId, reflect.TypeFor[T]()).(*T)
	return comp
}
