package render

// RenderStage names the stages of a render frame. The order is fixed: each frame
// runs every stage once, from Extract to Cleanup.
type RenderStage int

const (
	// Extract copies what rendering needs out of the simulation world into the
	// render world. Keep it short: the simulation can move on to its next frame
	// as soon as Extract returns.
	Extract RenderStage = iota
	// Prepare builds render resources from extracted data.
	Prepare
	// Queue builds draw work from prepared data. With write-back enabled its
	// systems can also reach the simulation world.
	Queue
	// PhaseSort orders queued draw work.
	PhaseSort
	// Render hands the frame to the backend.
	Render
	// Cleanup releases per-frame render state.
	Cleanup

	stageCount
)

// RenderStages returns every stage in execution order
func RenderStages() []RenderStage {
	return []RenderStage{Extract, Prepare, Queue, PhaseSort, Render, Cleanup}
}

// String returns the string representation of a stage.
func (s RenderStage) String() string {
	switch s {
	case Extract:
		return "Extract"
	case Prepare:
		return "Prepare"
	case Queue:
		return "Queue"
	case PhaseSort:
		return "PhaseSort"
	case Render:
		return "Render"
	case Cleanup:
		return "Cleanup"
	default:
		return "Unknown"
	}
}

// Valid reports whether s is one of the defined stages
func (s RenderStage) Valid() bool {
	return s >= Extract && s < stageCount
}
