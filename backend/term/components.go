package term

import (
	"github.com/gdamore/tcell/v2"
	"github.com/plus3/renderworld/ecs"
)

// Position is a simulation-side cell coordinate
type Position struct {
	X, Y int
}

// Glyph is what a simulation entity looks like on the terminal. Higher depths are
// drawn over lower ones.
type Glyph struct {
	Rune  rune
	Style tcell.Style
	Depth int
}

// Visible is written back onto simulation entities that were drawn, carrying the
// frame they were last drawn in.
type Visible struct {
	Frame uint64
}

// Cell is the render-side copy of a drawable simulation entity.
type Cell struct {
	X, Y  int
	Rune  rune
	Style tcell.Style
	Depth int
}

// Surface describes the terminal the backend draws to. It lives in the render
// world for the App's whole lifetime.
type Surface struct {
	Width, Height int
	Frame         uint64
}

// Contains reports whether the cell lies on the surface
func (s *Surface) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.Width && y < s.Height
}

type DrawItem struct {
	Entity ecs.EntityId
	X, Y   int
	Rune   rune
	Style  tcell.Style
	Depth  int
}

// DrawList is the render phase: the cells queued for this frame, sorted by
// PhaseSort before the backend draws them.
type DrawList struct {
	Items []DrawItem
}

// RegisterComponents adds the terminal backend's components to registry
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Glyph](registry)
	ecs.RegisterComponent[Visible](registry)
	ecs.RegisterComponent[Cell](registry)
}
