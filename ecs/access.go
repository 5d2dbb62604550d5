package ecs

import (
	"reflect"
	"slices"
)

// Access declares which resource and component types a system reads and writes.
// Stage uses it to decide which systems may run at the same time: readers may
// overlap, a writer excludes every other accessor of the same type, and an
// exclusive system runs alone. Only the declared types are compared; structural
// changes made directly on the world are not tracked and need ExclusiveAccess.
type Access struct {
	Reads     []reflect.Type
	Writes    []reflect.Type
	Exclusive bool
}

// AccessDeclarer is implemented by systems that carry their own access declaration.
type AccessDeclarer interface {
	Access() Access
}

// Read declares shared access to T
func Read[T any]() Access {
	return Access{Reads: []reflect.Type{reflect.TypeFor[T]()}}
}

// Write declares exclusive access to T
func Write[T any]() Access {
	return Access{Writes: []reflect.Type{reflect.TypeFor[T]()}}
}

// ExclusiveAccess declares access to the whole world
func ExclusiveAccess() Access {
	return Access{Exclusive: true}
}

// NoAccess declares a system that touches nothing any other system could conflict with
func NoAccess() Access {
	return Access{}
}

// Merge combines access declarations
func (a Access) Merge(others ...Access) Access {
	merged := Access{
		Reads:     slices.Clone(a.Reads),
		Writes:    slices.Clone(a.Writes),
		Exclusive: a.Exclusive,
	}
	for _, o := range others {
		merged.Exclusive = merged.Exclusive || o.Exclusive
		for _, t := range o.Reads {
			if !slices.Contains(merged.Reads, t) {
				merged.Reads = append(merged.Reads, t)
			}
		}
		for _, t := range o.Writes {
			if !slices.Contains(merged.Writes, t) {
				merged.Writes = append(merged.Writes, t)
			}
		}
	}
	return merged
}

// ConflictsWith reports whether two systems with these declarations must not run
// concurrently.
func (a Access) ConflictsWith(b Access) bool {
	if a.Exclusive || b.Exclusive {
		return true
	}
	for _, w := range a.Writes {
		if slices.Contains(b.Writes, w) || slices.Contains(b.Reads, w) {
			return true
		}
	}
	for _, w := range b.Writes {
		if slices.Contains(a.Reads, w) {
			return true
		}
	}
	return false
}

func resolveAccess(system System, declared []Access) Access {
	if len(declared) > 0 {
		return declared[0].Merge(declared[1:]...)
	}
	if d, ok := system.(AccessDeclarer); ok {
		return d.Access()
	}
	return ExclusiveAccess()
}
