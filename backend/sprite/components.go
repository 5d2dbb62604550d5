package sprite

import (
	"image/color"

	"github.com/plus3/renderworld/ecs"
)

// Position is a simulation-side location in world cells
type Position struct {
	X, Y float32
}

type Shape int

const (
	ShapeCircle Shape = iota
	ShapeSquare
)

// Sprite is what a simulation entity looks like. Scale is relative to one cell;
// higher layers are drawn over lower ones.
type Sprite struct {
	Color [3]uint8
	Scale float32
	Shape Shape
	Layer int
}

func (s Sprite) RGBA() color.RGBA {
	return color.RGBA{R: s.Color[0], G: s.Color[1], B: s.Color[2], A: 255}
}

// Camera is the simulation's view onto the world. X and Y name the world cell
// at the top left corner of the canvas. It is copied into the render world
// every frame.
type Camera struct {
	X, Y     float32
	Zoom     float32
	CellSize float32
}

// Scale returns the number of pixels per world cell
func (c Camera) Scale() float32 {
	return c.Zoom * c.CellSize
}

// DefaultCamera looks at the world origin at zoom 1 with 16 pixel cells
func DefaultCamera() Camera {
	return Camera{Zoom: 1, CellSize: 16}
}

// Extracted is the render-side copy of a drawable simulation entity.
type Extracted struct {
	X, Y   float32
	Sprite Sprite
}

// View is the region of the world visible on the canvas this frame.
type View struct {
	Camera        Camera
	Width, Height int
	Frame         uint64
}

// ToScreen converts a world position into canvas pixels
func (v *View) ToScreen(x, y float32) (float32, float32) {
	scale := v.Camera.Scale()
	return (x - v.Camera.X) * scale, (y - v.Camera.Y) * scale
}

// Visible reports whether a shape of the given pixel size centred on (sx, sy)
// touches the canvas.
func (v *View) Visible(sx, sy, size float32) bool {
	half := size / 2
	return sx+half >= 0 && sy+half >= 0 && sx-half <= float32(v.Width) && sy-half <= float32(v.Height)
}

// Instance is one queued draw call in canvas pixels.
type Instance struct {
	Entity ecs.EntityId
	X, Y   float32
	Size   float32
	Color  color.RGBA
	Shape  Shape
	Layer  int
}

// Batch is the render phase of the sprite backend, sorted by PhaseSort and
// drawn by the Render stage.
type Batch struct {
	Items []Instance
}

// RegisterComponents adds the sprite backend's components to registry
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Sprite](registry)
	ecs.RegisterComponent[Extracted](registry)
}
