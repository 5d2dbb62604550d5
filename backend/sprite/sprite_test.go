package sprite_test

import (
	"context"
	"image/color"
	"testing"

	"github.com/plus3/renderworld/backend/sprite"
	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type shapeCall struct {
	shape      sprite.Shape
	x, y, size float32
	color      color.RGBA
}

// recordingCanvas remembers the shapes of the last frame
type recordingCanvas struct {
	width, height int
	clears        int
	background    color.RGBA
	shapes        []shapeCall
}

func (c *recordingCanvas) Size() (int, int) { return c.width, c.height }

func (c *recordingCanvas) Clear(clr color.RGBA) {
	c.clears++
	c.background = clr
	c.shapes = c.shapes[:0]
}

func (c *recordingCanvas) FillCircle(cx, cy, radius float32, clr color.RGBA) {
	c.shapes = append(c.shapes, shapeCall{shape: sprite.ShapeCircle, x: cx, y: cy, size: radius * 2, color: clr})
}

func (c *recordingCanvas) FillRect(x, y, width, height float32, clr color.RGBA) {
	c.shapes = append(c.shapes, shapeCall{shape: sprite.ShapeSquare, x: x + width/2, y: y + height/2, size: width, color: clr})
}

func newPipeline(t *testing.T, canvas sprite.Canvas, opts ...render.Option) (*render.App, *sprite.Backend, *ecs.World) {
	t.Helper()
	registry := ecs.NewComponentRegistry()
	sprite.RegisterComponents(registry)

	backend := sprite.NewBackend(canvas)
	opts = append([]render.Option{render.WithLogger(zaptest.NewLogger(t))}, opts...)
	app, err := render.New(registry, backend, opts...)
	require.NoError(t, err)
	require.NoError(t, sprite.Install(app, backend))
	return app, backend, ecs.NewWorld(registry)
}

func TestDrawsVisibleSprites(t *testing.T) {
	canvas := &recordingCanvas{width: 160, height: 160}
	app, backend, sim := newPipeline(t, canvas)

	red := sprite.Sprite{Color: [3]uint8{255, 0, 0}, Scale: 1, Shape: sprite.ShapeCircle}
	blue := sprite.Sprite{Color: [3]uint8{0, 0, 255}, Scale: 0.5, Shape: sprite.ShapeSquare}

	sim.Spawn(sprite.Position{X: 2, Y: 3}, red)
	sim.Spawn(sprite.Position{X: 5, Y: 5}, blue)
	sim.Spawn(sprite.Position{X: 100, Y: 100}, red)

	require.NoError(t, app.Update(context.Background(), sim, 0.016))

	require.Len(t, canvas.shapes, 2)
	assert.Equal(t, 2, backend.Drawn())
	assert.Equal(t, 1, canvas.clears)

	circle := canvas.shapes[0]
	assert.Equal(t, sprite.ShapeCircle, circle.shape)
	assert.Equal(t, float32(32), circle.x)
	assert.Equal(t, float32(48), circle.y)
	assert.Equal(t, float32(16), circle.size)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, circle.color)

	square := canvas.shapes[1]
	assert.Equal(t, sprite.ShapeSquare, square.shape)
	assert.Equal(t, float32(80), square.x)
	assert.Equal(t, float32(8), square.size)

	assert.Equal(t, 0, app.World().EntityCount(), "render world is cleared after the frame")
	batch, err := ecs.GetResource[sprite.Batch](app.World())
	require.NoError(t, err)
	assert.Empty(t, batch.Items)
}

func TestCameraIsExtracted(t *testing.T) {
	canvas := &recordingCanvas{width: 100, height: 100}
	app, _, sim := newPipeline(t, canvas)

	sim.Spawn(sprite.Position{X: 10, Y: 10}, sprite.Sprite{Scale: 1})

	require.NoError(t, app.Update(context.Background(), sim, 0.016))
	assert.Empty(t, canvas.shapes, "default camera does not reach cell 10 at 16px")

	ecs.InsertResource(sim, sprite.Camera{X: 8, Y: 8, Zoom: 2, CellSize: 10})
	require.NoError(t, app.Update(context.Background(), sim, 0.016))
	require.Len(t, canvas.shapes, 1)
	assert.Equal(t, float32(40), canvas.shapes[0].x)
	assert.Equal(t, float32(20), canvas.shapes[0].size)

	view, err := ecs.GetResource[sprite.View](app.World())
	require.NoError(t, err)
	assert.Equal(t, float32(2), view.Camera.Zoom)
	assert.Equal(t, uint64(2), view.Frame)
}

func TestLayerOrdering(t *testing.T) {
	canvas := &recordingCanvas{width: 100, height: 100}
	app, _, sim := newPipeline(t, canvas)

	sim.Spawn(sprite.Position{X: 1, Y: 4}, sprite.Sprite{Scale: 1, Layer: 2, Color: [3]uint8{1}})
	sim.Spawn(sprite.Position{X: 1, Y: 1}, sprite.Sprite{Scale: 1, Layer: 2, Color: [3]uint8{2}})
	sim.Spawn(sprite.Position{X: 1, Y: 5}, sprite.Sprite{Scale: 1, Layer: 0, Color: [3]uint8{3}})

	require.NoError(t, app.Update(context.Background(), sim, 0.016))
	require.Len(t, canvas.shapes, 3)

	var order []uint8
	for _, s := range canvas.shapes {
		order = append(order, s.color.R)
	}
	assert.Equal(t, []uint8{3, 2, 1}, order)
}

func TestCanvasResizeIsTracked(t *testing.T) {
	canvas := &recordingCanvas{width: 20, height: 20}
	app, _, sim := newPipeline(t, canvas)

	sim.Spawn(sprite.Position{X: 3, Y: 0.5}, sprite.Sprite{Scale: 1})
	require.NoError(t, app.Update(context.Background(), sim, 0.016))
	assert.Empty(t, canvas.shapes)

	canvas.width = 64
	require.NoError(t, app.Update(context.Background(), sim, 0.016))
	assert.Len(t, canvas.shapes, 1)
}

func TestZeroScaleSpritesAreSkipped(t *testing.T) {
	canvas := &recordingCanvas{width: 100, height: 100}
	app, backend, sim := newPipeline(t, canvas)

	sim.Spawn(sprite.Position{X: 1, Y: 1}, sprite.Sprite{})
	require.NoError(t, app.Update(context.Background(), sim, 0.016))
	assert.Equal(t, 0, backend.Drawn())
}

func TestBackground(t *testing.T) {
	canvas := &recordingCanvas{width: 10, height: 10}
	app, backend, sim := newPipeline(t, canvas)

	backend.SetBackground(color.RGBA{R: 1, G: 2, B: 3, A: 255})
	require.NoError(t, app.Update(context.Background(), sim, 0.016))
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, canvas.background)
	assert.Same(t, canvas, backend.Canvas())
}

func TestSetupWithoutCanvas(t *testing.T) {
	registry := ecs.NewComponentRegistry()
	sprite.RegisterComponents(registry)

	_, err := render.New(registry, sprite.NewBackend(nil))
	assert.ErrorContains(t, err, "no canvas")
}

func TestViewVisible(t *testing.T) {
	view := &sprite.View{Camera: sprite.DefaultCamera(), Width: 100, Height: 50}

	x, y := view.ToScreen(2, 1)
	assert.Equal(t, float32(32), x)
	assert.Equal(t, float32(16), y)

	assert.True(t, view.Visible(0, 0, 4))
	assert.True(t, view.Visible(-1, -1, 4), "partially on screen")
	assert.False(t, view.Visible(-3, 10, 4))
	assert.False(t, view.Visible(50, 53, 4))
}
