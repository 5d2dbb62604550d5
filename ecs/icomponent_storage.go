package ecs

// iComponentStorage is an interface for a type-erased component column. Rows are
// assigned by the owning Archetype so every column of an archetype shares its indices.
type iComponentStorage interface {
	Set(index int, item any) bool
	Delete(index int)
	Get(index int) any
	Has(index int) bool
	Clear()
}
