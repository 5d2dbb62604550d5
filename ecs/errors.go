package ecs

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrMissingResource is returned when a resource slot expected to be present is empty.
	ErrMissingResource = errors.New("missing resource")

	// ErrStageNotFound is returned when a stage name was never added to a Schedule.
	ErrStageNotFound = errors.New("stage not found")

	// ErrIdentifierCollision is returned when an entity identifier cannot be claimed
	// because the allocator already handed it out or has not flushed its reservation.
	ErrIdentifierCollision = errors.New("identifier collision")
)

// MissingResourceError names the resource type that was absent.
type MissingResourceError struct {
	Type reflect.Type
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("missing resource %s", e.Type)
}

func (e *MissingResourceError) Is(target error) bool {
	return target == ErrMissingResource
}

// StageNotFoundError names the stage that was looked up.
type StageNotFoundError struct {
	Name string
}

func (e *StageNotFoundError) Error() string {
	return fmt.Sprintf("stage %q not found", e.Name)
}

func (e *StageNotFoundError) Is(target error) bool {
	return target == ErrStageNotFound
}

// IdentifierCollisionError describes which identifier collided and why.
type IdentifierCollisionError struct {
	Id     EntityId
	Reason string
}

func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("identifier collision on entity %s: %s", e.Id, e.Reason)
}

func (e *IdentifierCollisionError) Is(target error) bool {
	return target == ErrIdentifierCollision
}

// SystemError wraps an error returned by a system while its stage was running. The
// message names only the system; callers that run stages add the stage themselves.
type SystemError struct {
	Stage  string
	System string
	Err    error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system %s: %v", e.System, e.Err)
}

func (e *SystemError) Unwrap() error {
	return e.Err
}
