package ecs

import (
	"context"
	"fmt"
)

// Schedule is an ordered list of named stages. Stages run strictly one after the
// other; a stage never starts before the previous one returned.
type Schedule struct {
	stages []*Stage
	index  map[string]int
}

// NewSchedule creates an empty schedule
func NewSchedule() *Schedule {
	return &Schedule{index: make(map[string]int)}
}

// AddStage appends stage to the schedule. Stage names must be unique.
func (s *Schedule) AddStage(stage *Stage) *Schedule {
	if _, exists := s.index[stage.Name()]; exists {
		panic(fmt.Sprintf("stage %q added twice", stage.Name()))
	}
	s.index[stage.Name()] = len(s.stages)
	s.stages = append(s.stages, stage)
	return s
}

// Stage looks a stage up by name
func (s *Schedule) Stage(name string) (*Stage, error) {
	i, ok := s.index[name]
	if !ok {
		return nil, &StageNotFoundError{Name: name}
	}
	return s.stages[i], nil
}

// Stages returns the stages in execution order
func (s *Schedule) Stages() []*Stage {
	return s.stages
}

// Register adds system to the named stage
func (s *Schedule) Register(stageName string, system System, access ...Access) error {
	stage, err := s.Stage(stageName)
	if err != nil {
		return err
	}
	stage.Register(system, access...)
	return nil
}

// Run executes every stage in order against world and stops at the first failure.
func (s *Schedule) Run(ctx context.Context, world *World, dt float64) error {
	for _, stage := range s.stages {
		if err := stage.Run(ctx, world, dt); err != nil {
			return fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
	}
	return nil
}
