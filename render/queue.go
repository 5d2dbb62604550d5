package render

import (
	"context"
	"fmt"

	"github.com/plus3/renderworld/ecs"
	"go.uber.org/multierr"
)

// Queue runs the Queue stage on the render world. With write-back enabled the
// simulation world is moved out of its slot and lent to the render world as a
// LoanedSimulationWorld resource for the duration of the stage, and commands
// recorded by Queue systems are applied to the simulation world afterwards.
// Without write-back Queue runs like any other render stage.
//
// The simulation world is always returned to its slot, including when a system
// fails.
func (a *App) Queue(ctx context.Context, sim *ecs.World) error {
	stage := a.stages[Queue]
	if !a.queueWriteBack {
		return stage.Run(ctx, a.world, a.dt)
	}

	if ecs.HasResource[LoanedSimulationWorld](a.world) {
		return fmt.Errorf("queue: %w", ErrLoanInUse)
	}

	loaned := a.scratch.Take(ScratchSimulation, sim.Registry())
	sim.Exchange(loaned)
	ecs.InsertResource(a.world, LoanedSimulationWorld{World: loaned})

	runErr := stage.Run(ctx, a.world, a.dt)

	loan, err := ecs.RemoveResource[LoanedSimulationWorld](a.world)
	if err != nil {
		runErr = multierr.Append(runErr, err)
	} else {
		loaned = loan.World
	}
	sim.Exchange(loaned)
	a.scratch.Put(ScratchSimulation, loaned)

	if runErr != nil {
		return runErr
	}
	return stage.ApplyBuffers(sim)
}
