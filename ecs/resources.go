package ecs

import (
	"reflect"
	"sort"
)

// InsertResource stores value in the resource slot keyed by its type. An existing
// value of the same type is overwritten in place, so pointers obtained earlier
// through GetResource or a Singleton keep observing the slot.
func (w *World) InsertResource(value any) {
	if value == nil {
		panic("cannot insert nil resource")
	}

	t := reflect.TypeOf(value)
	if box, ok := w.data.resources[t]; ok {
		reflect.ValueOf(box).Elem().Set(reflect.ValueOf(value))
		return
	}

	box := reflect.New(t)
	box.Elem().Set(reflect.ValueOf(value))
	w.data.resources[t] = box.Interface()
	w.data.resourceVersion++
}

// AddSingleton is an alias of InsertResource kept for singleton-style call sites.
func (w *World) AddSingleton(value any) {
	w.InsertResource(value)
}

// HasResourceType reports whether the slot for t is filled
func (w *World) HasResourceType(t reflect.Type) bool {
	_, ok := w.data.resources[t]
	return ok
}

// ResourceTypes returns the types of every filled resource slot, sorted by name
func (w *World) ResourceTypes() []reflect.Type {
	types := make([]reflect.Type, 0, len(w.data.resources))
	for t := range w.data.resources {
		types = append(types, t)
	}
	sort.Sort(byTypeName(types))
	return types
}

// getResourceBox returns the *T box stored for t, or nil
func (w *World) getResourceBox(t reflect.Type) any {
	return w.data.resources[t]
}

func (w *World) removeResourceBox(t reflect.Type) (any, bool) {
	box, ok := w.data.resources[t]
	if !ok {
		return nil, false
	}
	delete(w.data.resources, t)
	w.data.resourceVersion++
	return box, true
}

// InsertResource stores value in w's resource slot for T
func InsertResource[T any](w *World, value T) {
	t := reflect.TypeFor[T]()
	if box, ok := w.data.resources[t]; ok {
		*box.(*T) = value
		return
	}
	box := new(T)
	*box = value
	w.data.resources[t] = box
	w.data.resourceVersion++
}

// GetResource returns a pointer to the resource of type T
func GetResource[T any](w *World) (*T, error) {
	box, ok := w.data.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, &MissingResourceError{Type: reflect.TypeFor[T]()}
	}
	return box.(*T), nil
}

// RemoveResource takes the resource of type T out of w, leaving the slot empty
func RemoveResource[T any](w *World) (T, error) {
	box, ok := w.removeResourceBox(reflect.TypeFor[T]())
	if !ok {
		var zero T
		return zero, &MissingResourceError{Type: reflect.TypeFor[T]()}
	}
	return *box.(*T), nil
}

// HasResource reports whether w holds a resource of type T
func HasResource[T any](w *World) bool {
	return w.HasResourceType(reflect.TypeFor[T]())
}
