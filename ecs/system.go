package ecs

// System represents a behavior that operates on entities with specific components.
// User-defined systems should implement this interface and can include Query and
// Singleton fields, which the Stage binds to the world the system runs on, as well
// as custom state fields that persist between frames.
//
// A returned error is fatal to the frame the stage belongs to.
type System interface {
	Execute(frame *UpdateFrame) error
}

// SystemFunc adapts a plain function to the System interface.
type SystemFunc func(frame *UpdateFrame) error

func (f SystemFunc) Execute(frame *UpdateFrame) error {
	return f(frame)
}

// UpdateFrame is what a system sees while it runs: the world its stage runs on and
// a private command buffer applied at the stage's discretion.
//
// Structural changes made directly on World (Spawn, Despawn, AddComponent,
// RemoveComponent) touch the allocator and archetype tables shared by every
// system, so a system doing them must declare ExclusiveAccess. Otherwise record
// them on Commands.
type UpdateFrame struct {
	DeltaTime float64
	Stage     string
	Commands  *Commands
	World     *World
}
