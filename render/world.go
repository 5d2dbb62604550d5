package render

import "github.com/plus3/renderworld/ecs"

// LoanedRenderWorld holds the render world while it is on loan to the simulation
// world. It exists only during Extract, as a resource of the simulation world.
type LoanedRenderWorld struct {
	*ecs.World
}

// LoanedSimulationWorld holds the simulation world while it is on loan to the
// render world. It exists only during Queue with write-back enabled, as a
// resource of the render world.
type LoanedSimulationWorld struct {
	*ecs.World
}
