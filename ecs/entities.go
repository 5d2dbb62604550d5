package ecs

type entityState uint8

const (
	stateFree    entityState = iota // unused; may sit on the free list
	statePending                    // reserved but not flushed yet
	stateInvalid                    // flushed as invalid; only claimable by id
	stateAlive
)

type entityMeta struct {
	generation uint32
	state      entityState
	archetype  *Archetype
	row        uint32
}

// Entities is a world's identifier allocator. Besides the usual free-list allocation it
// can reserve a prefix of the identifier space so another world's identifiers can be
// mirrored onto the same numbers.
type Entities struct {
	metas           []entityMeta
	free            []uint32
	alive           int
	pendingFrom     int
	reservedThrough int
}

func newEntities() *Entities {
	return &Entities{
		metas: make([]entityMeta, 0, 256),
		free:  make([]uint32, 0, 64),
	}
}

// Len returns the number of identifier slots this allocator has ever issued or reserved.
func (e *Entities) Len() int {
	return len(e.metas)
}

// AliveCount returns the number of live entities.
func (e *Entities) AliveCount() int {
	return e.alive
}

// ReservedThrough returns the exclusive upper bound of the reserved prefix.
func (e *Entities) ReservedThrough() int {
	return e.reservedThrough
}

// Contains reports whether id refers to a live entity of the same generation.
func (e *Entities) Contains(id EntityId) bool {
	idx := int(id.Index())
	if idx >= len(e.metas) {
		return false
	}
	meta := &e.metas[idx]
	return meta.state == stateAlive && meta.generation == id.Generation()
}

// IsReserved reports whether id's index is reserved and not yet claimed.
func (e *Entities) IsReserved(id EntityId) bool {
	idx := int(id.Index())
	if idx >= len(e.metas) {
		return false
	}
	state := e.metas[idx].state
	return state == statePending || state == stateInvalid
}

// IsPending reports whether id's index is reserved and still awaiting a flush.
func (e *Entities) IsPending(id EntityId) bool {
	idx := int(id.Index())
	return idx < len(e.metas) && e.metas[idx].state == statePending
}

// alloc hands out an anonymous identifier. Reserved indices are never on the free
// list, so anonymous entities cannot land on a mirrored identifier.
func (e *Entities) alloc() EntityId {
	var idx uint32
	if n := len(e.free); n > 0 {
		idx = e.free[n-1]
		e.free = e.free[:n-1]
	} else {
		idx = uint32(len(e.metas))
		e.metas = append(e.metas, entityMeta{})
	}

	meta := &e.metas[idx]
	meta.state = stateAlive
	e.alive++
	return NewEntityId(idx, meta.generation)
}

// claim marks id alive at its exact index and generation. strict rejects ids that are
// already alive; otherwise a live entity with the same generation is reused, however it
// was spawned, and claim reports created == false.
func (e *Entities) claim(id EntityId, strict bool) (created bool, err error) {
	idx := int(id.Index())
	for len(e.metas) <= idx {
		e.free = append(e.free, uint32(len(e.metas)))
		e.metas = append(e.metas, entityMeta{})
	}

	meta := &e.metas[idx]
	switch meta.state {
	case statePending:
		return false, &IdentifierCollisionError{Id: id, Reason: "reservation not flushed"}
	case stateAlive:
		if strict {
			return false, &IdentifierCollisionError{Id: id, Reason: "identifier already alive"}
		}
		if meta.generation != id.Generation() {
			return false, &IdentifierCollisionError{Id: id, Reason: "generation mismatch"}
		}
		return false, nil
	case stateFree:
		e.removeFree(uint32(idx))
	}

	meta.state = stateAlive
	meta.generation = id.Generation()
	e.alive++
	return true, nil
}

// release frees a live identifier and bumps its generation.
func (e *Entities) release(id EntityId) bool {
	if !e.Contains(id) {
		return false
	}
	meta := &e.metas[id.Index()]
	meta.generation++
	meta.state = stateFree
	meta.archetype = nil
	e.alive--

	// Released indices inside the reserved prefix go back to invalid so they keep
	// mirroring the other world.
	if int(id.Index()) < e.reservedThrough {
		meta.state = stateInvalid
		return true
	}
	e.free = append(e.free, id.Index())
	return true
}

// ReserveThrough reserves every identifier index below n that is not alive. Reserved
// indices stay pending until FlushAsInvalid.
func (e *Entities) ReserveThrough(n int) {
	if n <= e.reservedThrough {
		return
	}

	// pendingFrom already trails reservedThrough when an earlier reservation is
	// still unflushed.
	for idx := e.reservedThrough; idx < n; idx++ {
		if idx >= len(e.metas) {
			e.metas = append(e.metas, entityMeta{state: statePending})
			continue
		}
		meta := &e.metas[idx]
		if meta.state == stateFree {
			e.removeFree(uint32(idx))
			meta.state = statePending
		}
	}
	e.reservedThrough = n
}

// FlushAsInvalid settles every pending reservation as invalid: the identifiers exist
// but hold no entity until something spawns directly onto them.
func (e *Entities) FlushAsInvalid() {
	for idx := e.pendingFrom; idx < e.reservedThrough && idx < len(e.metas); idx++ {
		if e.metas[idx].state == statePending {
			e.metas[idx].state = stateInvalid
		}
	}
	e.pendingFrom = e.reservedThrough
}

// Clear resets the allocator, keeping its backing storage.
func (e *Entities) Clear() {
	e.metas = e.metas[:0]
	e.free = e.free[:0]
	e.alive = 0
	e.pendingFrom = 0
	e.reservedThrough = 0
}

func (e *Entities) meta(id EntityId) *entityMeta {
	if !e.Contains(id) {
		return nil
	}
	return &e.metas[id.Index()]
}

func (e *Entities) removeFree(idx uint32) {
	for i, f := range e.free {
		if f == idx {
			last := len(e.free) - 1
			e.free[i] = e.free[last]
			e.free = e.free[:last]
			return
		}
	}
}
