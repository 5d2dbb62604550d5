package ecs

import (
	"context"
	"time"
)

// Scheduler drives a single stage of systems over one world, the way a simulation
// loop updates its own state between render frames.
type Scheduler struct {
	world *World
	stage *Stage
}

// NewScheduler creates a new scheduler for the given world.
func NewScheduler(world *World) *Scheduler {
	return &Scheduler{
		world: world,
		stage: NewStage("Update"),
	}
}

// World returns the world the scheduler runs on
func (s *Scheduler) World() *World {
	return s.world
}

// Stage returns the underlying stage, e.g. to change its worker limit
func (s *Scheduler) Stage() *Stage {
	return s.stage
}

// Register adds a system to the scheduler. Query and Singleton fields are bound to
// the scheduler's world before the system first runs.
func (s *Scheduler) Register(system System, access ...Access) {
	s.stage.Register(system, access...)
}

// Once executes all registered systems once with the given delta time and applies
// their command buffers.
func (s *Scheduler) Once(dt float64) error {
	return s.stage.Run(context.Background(), s.world, dt)
}

// Run executes all systems repeatedly at the given interval until the context is
// cancelled or a system fails.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := s.stage.Run(ctx, s.world, dt); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() StageStats {
	return s.stage.Stats()
}
