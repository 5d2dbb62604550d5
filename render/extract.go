package render

import (
	"context"
	"fmt"

	"github.com/plus3/renderworld/ecs"
	"go.uber.org/multierr"
)

// Extract runs the Extract stage on the simulation world. For the duration of the
// stage the render world is moved out of its slot and lent to the simulation
// world as a LoanedRenderWorld resource; an idle scratch world holds the slot in
// the meantime. Commands recorded by Extract systems are applied to the render
// world once it is back in place.
//
// The render world is always returned to its slot, including when a system fails.
func (a *App) Extract(ctx context.Context, sim *ecs.World) error {
	stage := a.stages[Extract]

	if ecs.HasResource[LoanedRenderWorld](sim) {
		return fmt.Errorf("extract: %w", ErrLoanInUse)
	}
	if a.world.Entities().ReservedThrough() < sim.Entities().Len() {
		a.ReserveParity(sim)
	}

	loaned := a.scratch.Take(ScratchRender, a.world.Registry())
	a.world.Exchange(loaned)
	ecs.InsertResource(sim, LoanedRenderWorld{World: loaned})

	runErr := stage.Run(ctx, sim, a.dt)

	loan, err := ecs.RemoveResource[LoanedRenderWorld](sim)
	if err != nil {
		runErr = multierr.Append(runErr, err)
	} else {
		loaned = loan.World
	}
	a.world.Exchange(loaned)
	a.scratch.Put(ScratchRender, loaned)

	if runErr != nil {
		return runErr
	}
	return stage.ApplyBuffers(a.world)
}
