package render

import "github.com/plus3/renderworld/ecs"

// ScratchRole selects which idle scratch world a ScratchCache hands out.
type ScratchRole int

const (
	// ScratchRender stands in for the render world while it is on loan.
	ScratchRender ScratchRole = iota
	// ScratchSimulation stands in for the simulation world while it is on loan.
	ScratchSimulation

	scratchRoleCount
)

func (r ScratchRole) String() string {
	switch r {
	case ScratchRender:
		return "render"
	case ScratchSimulation:
		return "simulation"
	default:
		return "unknown"
	}
}

// ScratchCache keeps one idle scratch world per role so exchanging a world out of
// its slot never allocates a replacement. A scratch world is created the first time
// a role is taken while idle; after that the world that comes back from each
// exchange is the next one handed out. Take leaves the role's slot empty rather than
// building a replacement up front, so a take without a matching Put costs one
// construction on the next take instead of one on every take.
type ScratchCache struct {
	idle    [scratchRoleCount]*ecs.World
	created int
}

// NewScratchCache creates an empty cache
func NewScratchCache() *ScratchCache {
	return &ScratchCache{}
}

// Take removes the idle scratch world for role from the cache, building one from
// registry if the role has none.
func (c *ScratchCache) Take(role ScratchRole, registry *ecs.ComponentRegistry) *ecs.World {
	if w := c.idle[role]; w != nil {
		c.idle[role] = nil
		return w
	}
	c.created++
	return ecs.NewScratchWorld(registry)
}

// Put stores world as the idle scratch world for role. Its entities are cleared;
// whatever is left in its resource slots is irrelevant.
func (c *ScratchCache) Put(role ScratchRole, world *ecs.World) {
	world.ClearEntities()
	c.idle[role] = world
}

// Idle reports whether role currently has a scratch world waiting
func (c *ScratchCache) Idle(role ScratchRole) bool {
	return c.idle[role] != nil
}

// Created returns how many scratch worlds the cache has ever built
func (c *ScratchCache) Created() int {
	return c.created
}
