package sprite

import (
	"cmp"
	"reflect"
	"slices"

	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/render"
)

// ExtractSprites mirrors every positioned sprite into the render world.
type ExtractSprites struct {
	Entities ecs.Query[struct {
		*Position
		*Sprite
	}]
}

func (s *ExtractSprites) Execute(frame *ecs.UpdateFrame) error {
	for id, item := range s.Entities.Iter() {
		frame.Commands.GetOrSpawn(id, Extracted{
			X:      item.Position.X,
			Y:      item.Position.Y,
			Sprite: *item.Sprite,
		})
	}
	return nil
}

func (s *ExtractSprites) Access() ecs.Access {
	return ecs.Read[Position]().Merge(ecs.Read[Sprite]())
}

// ExtractCamera copies the simulation's Camera resource, if any, into the render
// world. Without one the render world keeps its previous camera.
type ExtractCamera struct {
	Camera ecs.Singleton[Camera]
}

func (s *ExtractCamera) Execute(frame *ecs.UpdateFrame) error {
	if camera := s.Camera.Get(); camera != nil {
		frame.Commands.InsertResource(*camera)
	}
	return nil
}

func (s *ExtractCamera) Access() ecs.Access {
	return ecs.Read[Camera]()
}

// PrepareView measures the canvas and fixes the camera for this frame.
type PrepareView struct {
	Backend *Backend
	Camera  ecs.Singleton[Camera]
	View    ecs.Singleton[View]
}

func (s *PrepareView) Execute(frame *ecs.UpdateFrame) error {
	view := s.View.Get()
	if view == nil {
		return &ecs.MissingResourceError{Type: reflect.TypeFor[View]()}
	}
	if camera := s.Camera.Get(); camera != nil {
		view.Camera = *camera
	}
	if view.Camera.Zoom <= 0 {
		view.Camera.Zoom = 1
	}
	view.Width, view.Height = s.Backend.canvas.Size()
	view.Frame++
	return nil
}

func (s *PrepareView) Access() ecs.Access {
	return ecs.Read[Camera]().Merge(ecs.Write[View]())
}

// QueueSprites converts the extracted sprites into canvas space and queues the
// visible ones.
type QueueSprites struct {
	Sprites ecs.Query[struct{ *Extracted }]
	View    ecs.Singleton[View]
	Batch   ecs.Singleton[Batch]
}

func (s *QueueSprites) Execute(frame *ecs.UpdateFrame) error {
	view := s.View.Get()
	batch := s.Batch.Get()
	if view == nil || batch == nil {
		return &ecs.MissingResourceError{Type: reflect.TypeFor[Batch]()}
	}

	scale := view.Camera.Scale()
	for id, item := range s.Sprites.Iter() {
		sx, sy := view.ToScreen(item.X, item.Y)
		size := scale * item.Sprite.Scale
		if size <= 0 || !view.Visible(sx, sy, size) {
			continue
		}
		batch.Items = append(batch.Items, Instance{
			Entity: id,
			X:      sx,
			Y:      sy,
			Size:   size,
			Color:  item.Sprite.RGBA(),
			Shape:  item.Sprite.Shape,
			Layer:  item.Sprite.Layer,
		})
	}
	return nil
}

func (s *QueueSprites) Access() ecs.Access {
	return ecs.Read[Extracted]().Merge(ecs.Read[View](), ecs.Write[Batch]())
}

// SortBatch orders the batch by layer, then top to bottom so lower sprites
// overlap the ones behind them.
type SortBatch struct {
	Batch ecs.Singleton[Batch]
}

func (s *SortBatch) Execute(frame *ecs.UpdateFrame) error {
	batch := s.Batch.Get()
	if batch == nil {
		return &ecs.MissingResourceError{Type: reflect.TypeFor[Batch]()}
	}
	slices.SortStableFunc(batch.Items, func(a, b Instance) int {
		return cmp.Or(
			cmp.Compare(a.Layer, b.Layer),
			cmp.Compare(a.Y, b.Y),
		)
	})
	return nil
}

func (s *SortBatch) Access() ecs.Access {
	return ecs.Write[Batch]()
}

type ResetBatch struct {
	Batch ecs.Singleton[Batch]
}

func (s *ResetBatch) Execute(frame *ecs.UpdateFrame) error {
	if batch := s.Batch.Get(); batch != nil {
		batch.Items = batch.Items[:0]
	}
	return nil
}

func (s *ResetBatch) Access() ecs.Access {
	return ecs.Write[Batch]()
}

// Install registers the sprite systems in their stages.
func Install(app *render.App, backend *Backend) error {
	systems := []struct {
		stage  render.RenderStage
		system ecs.System
	}{
		{render.Extract, &ExtractSprites{}},
		{render.Extract, &ExtractCamera{}},
		{render.Prepare, &PrepareView{Backend: backend}},
		{render.Queue, &QueueSprites{}},
		{render.PhaseSort, &SortBatch{}},
		{render.Cleanup, &ResetBatch{}},
	}
	for _, s := range systems {
		if err := app.AddSystem(s.stage, s.system); err != nil {
			return err
		}
	}
	return nil
}
