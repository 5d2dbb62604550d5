// Package ebiten provides a sprite.Canvas backed by an ebiten image.
package ebiten

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Canvas draws into an offscreen image. The render pipeline runs during the
// game's Update, so the image is copied to the screen later in Draw.
type Canvas struct {
	image     *ebiten.Image
	antialias bool
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{image: ebiten.NewImage(width, height), antialias: true}
}

// Resize replaces the backing image when the window size changed
func (c *Canvas) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	bounds := c.image.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return
	}
	c.image.Deallocate()
	c.image = ebiten.NewImage(width, height)
}

// Image returns the backing image
func (c *Canvas) Image() *ebiten.Image {
	return c.image
}

// DrawTo copies the canvas onto screen
func (c *Canvas) DrawTo(screen *ebiten.Image) {
	screen.DrawImage(c.image, nil)
}

func (c *Canvas) Size() (int, int) {
	bounds := c.image.Bounds()
	return bounds.Dx(), bounds.Dy()
}

func (c *Canvas) Clear(clr color.RGBA) {
	c.image.Fill(clr)
}

func (c *Canvas) FillCircle(cx, cy, radius float32, clr color.RGBA) {
	vector.DrawFilledCircle(c.image, cx, cy, radius, clr, c.antialias)
}

func (c *Canvas) FillRect(x, y, width, height float32, clr color.RGBA) {
	vector.DrawFilledRect(c.image, x, y, width, height, clr, c.antialias)
}
