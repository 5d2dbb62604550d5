package term

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"
	"github.com/plus3/renderworld/ecs"
)

// Backend draws the render world's DrawList to a tcell screen. The screen must be
// initialized by the caller.
type Backend struct {
	screen     tcell.Screen
	background tcell.Style
}

// NewBackend creates a backend drawing to screen
func NewBackend(screen tcell.Screen) *Backend {
	return &Backend{
		screen:     screen,
		background: tcell.StyleDefault,
	}
}

// Screen returns the screen the backend draws to
func (b *Backend) Screen() tcell.Screen {
	return b.screen
}

func (b *Backend) Setup(world *ecs.World) error {
	if b.screen == nil {
		return errors.New("term: no screen")
	}
	width, height := b.screen.Size()
	ecs.InsertResource(world, Surface{Width: width, Height: height})
	ecs.InsertResource(world, DrawList{Items: make([]DrawItem, 0, 256)})
	return nil
}

func (b *Backend) Render(ctx context.Context, world *ecs.World) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	drawList, err := ecs.GetResource[DrawList](world)
	if err != nil {
		return err
	}

	b.screen.SetStyle(b.background)
	b.screen.Clear()
	for _, item := range drawList.Items {
		b.screen.SetContent(item.X, item.Y, item.Rune, nil, item.Style)
	}
	b.screen.Show()
	return nil
}
