package term

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/render"
)

// ExtractCells copies every positioned glyph into the render world, keeping the
// simulation entity's identifier.
type ExtractCells struct {
	Entities ecs.Query[struct {
		*Position
		*Glyph
	}]
}

func (s *ExtractCells) Execute(frame *ecs.UpdateFrame) error {
	for id, item := range s.Entities.Iter() {
		frame.Commands.GetOrSpawn(id, Cell{
			X:     item.Position.X,
			Y:     item.Position.Y,
			Rune:  item.Glyph.Rune,
			Style: item.Glyph.Style,
			Depth: item.Glyph.Depth,
		})
	}
	return nil
}

func (s *ExtractCells) Access() ecs.Access {
	return ecs.Read[Position]().Merge(ecs.Read[Glyph]())
}

// PrepareSurface tracks terminal resizes and advances the frame counter.
type PrepareSurface struct {
	Backend *Backend
	Surface ecs.Singleton[Surface]
}

func (s *PrepareSurface) Execute(frame *ecs.UpdateFrame) error {
	surface := s.Surface.Get()
	if surface == nil {
		return &ecs.MissingResourceError{Type: reflect.TypeFor[Surface]()}
	}
	surface.Width, surface.Height = s.Backend.screen.Size()
	surface.Frame++
	return nil
}

func (s *PrepareSurface) Access() ecs.Access {
	return ecs.Write[Surface]()
}

// QueueCells fills the DrawList with every cell on the surface. When the
// simulation world is on loan it also marks the drawn simulation entities Visible.
type QueueCells struct {
	Cells    ecs.Query[struct{ *Cell }]
	Surface  ecs.Singleton[Surface]
	DrawList ecs.Singleton[DrawList]
}

func (s *QueueCells) Execute(frame *ecs.UpdateFrame) error {
	surface := s.Surface.Get()
	drawList := s.DrawList.Get()
	if surface == nil || drawList == nil {
		return &ecs.MissingResourceError{Type: reflect.TypeFor[DrawList]()}
	}

	writeBack := ecs.HasResource[render.LoanedSimulationWorld](frame.World)
	for id, item := range s.Cells.Iter() {
		if !surface.Contains(item.X, item.Y) {
			continue
		}
		drawList.Items = append(drawList.Items, DrawItem{
			Entity: id,
			X:      item.X,
			Y:      item.Y,
			Rune:   item.Rune,
			Style:  item.Style,
			Depth:  item.Depth,
		})
		if writeBack {
			frame.Commands.AddComponent(id, Visible{Frame: surface.Frame})
		}
	}
	return nil
}

func (s *QueueCells) Access() ecs.Access {
	return ecs.Read[Cell]().Merge(ecs.Read[Surface](), ecs.Write[DrawList]())
}

// SortDrawList orders the DrawList back to front, then top to bottom.
type SortDrawList struct {
	DrawList ecs.Singleton[DrawList]
}

func (s *SortDrawList) Execute(frame *ecs.UpdateFrame) error {
	drawList := s.DrawList.Get()
	if drawList == nil {
		return &ecs.MissingResourceError{Type: reflect.TypeFor[DrawList]()}
	}
	slices.SortStableFunc(drawList.Items, func(a, b DrawItem) int {
		return cmp.Or(
			cmp.Compare(a.Depth, b.Depth),
			cmp.Compare(a.Y, b.Y),
			cmp.Compare(a.X, b.X),
		)
	})
	return nil
}

func (s *SortDrawList) Access() ecs.Access {
	return ecs.Write[DrawList]()
}

// ResetDrawList empties the DrawList, keeping its capacity.
type ResetDrawList struct {
	DrawList ecs.Singleton[DrawList]
}

func (s *ResetDrawList) Execute(frame *ecs.UpdateFrame) error {
	if drawList := s.DrawList.Get(); drawList != nil {
		drawList.Items = drawList.Items[:0]
	}
	return nil
}

func (s *ResetDrawList) Access() ecs.Access {
	return ecs.Write[DrawList]()
}

// Install registers the terminal systems in their stages.
func Install(app *render.App, backend *Backend) error {
	systems := []struct {
		stage  render.RenderStage
		system ecs.System
	}{
		{render.Extract, &ExtractCells{}},
		{render.Prepare, &PrepareSurface{Backend: backend}},
		{render.Queue, &QueueCells{}},
		{render.PhaseSort, &SortDrawList{}},
		{render.Cleanup, &ResetDrawList{}},
	}
	for _, s := range systems {
		if err := app.AddSystem(s.stage, s.system); err != nil {
			return err
		}
	}
	return nil
}
