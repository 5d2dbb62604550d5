// Package sprite is a render backend that draws coloured shapes to a 2D canvas.
// The canvas is abstract so the same pipeline drives an ebiten image in the GUI
// and a recording canvas in tests.
package sprite

import (
	"context"
	"errors"
	"image/color"

	"github.com/plus3/renderworld/ecs"
)

// Canvas is a drawing target measured in pixels.
type Canvas interface {
	Size() (width, height int)
	Clear(c color.RGBA)
	FillCircle(cx, cy, radius float32, c color.RGBA)
	FillRect(x, y, width, height float32, c color.RGBA)
}

// Backend draws the render world's Batch onto a Canvas.
type Backend struct {
	canvas     Canvas
	background color.RGBA
	drawn      int
}

func NewBackend(canvas Canvas) *Backend {
	return &Backend{
		canvas:     canvas,
		background: color.RGBA{R: 245, G: 245, B: 240, A: 255},
	}
}

// SetBackground changes the colour the canvas is cleared to
func (b *Backend) SetBackground(c color.RGBA) {
	b.background = c
}

// Canvas returns the canvas the backend draws to
func (b *Backend) Canvas() Canvas {
	return b.canvas
}

// Drawn returns the number of shapes drawn in the last frame
func (b *Backend) Drawn() int {
	return b.drawn
}

func (b *Backend) Setup(world *ecs.World) error {
	if b.canvas == nil {
		return errors.New("sprite: no canvas")
	}
	width, height := b.canvas.Size()
	ecs.InsertResource(world, DefaultCamera())
	ecs.InsertResource(world, View{Camera: DefaultCamera(), Width: width, Height: height})
	ecs.InsertResource(world, Batch{Items: make([]Instance, 0, 1024)})
	return nil
}

func (b *Backend) Render(ctx context.Context, world *ecs.World) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch, err := ecs.GetResource[Batch](world)
	if err != nil {
		return err
	}

	b.canvas.Clear(b.background)
	for _, item := range batch.Items {
		switch item.Shape {
		case ShapeSquare:
			b.canvas.FillRect(item.X-item.Size/2, item.Y-item.Size/2, item.Size, item.Size, item.Color)
		default:
			b.canvas.FillCircle(item.X, item.Y, item.Size/2, item.Color)
		}
	}
	b.drawn = len(batch.Items)
	return nil
}
