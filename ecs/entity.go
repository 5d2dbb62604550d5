package ecs

import "fmt"

// EntityId encodes the generation (upper 32 bits) and the entity index (lower 32 bits).
// Indices are issued monotonically by a world's allocator; the generation changes each
// time an index is freed and handed out again.
type EntityId uint64

// NewEntityId creates an EntityId from an index and a generation
func NewEntityId(index uint32, generation uint32) EntityId {
	return EntityId(uint64(generation)<<32 | uint64(index))
}

// Index extracts the entity index from the entity ID
func (e EntityId) Index() uint32 {
	return uint32(e & 0xFFFFFFFF)
}

// Generation extracts the generation from the entity ID
func (e EntityId) Generation() uint32 {
	return uint32(e >> 32)
}

func (e EntityId) String() string {
	return fmt.Sprintf("%dv%d", e.Index(), e.Generation())
}
