package main

import (
	"math/rand"

	"github.com/gdamore/tcell/v2"
	"github.com/plus3/renderworld/backend/term"
	"github.com/plus3/renderworld/ecs"
)

// Velocity in cells per second. Fractional progress lives in the accumulators.
type Velocity struct {
	DX, DY float64
	AX, AY float64
}

var palette = []tcell.Color{
	tcell.ColorGreen,
	tcell.ColorBlue,
	tcell.ColorYellow,
	tcell.ColorPurple,
	tcell.ColorRed,
}

func spawnBouncers(world *ecs.World, n, width, height int, rng *rand.Rand) {
	for i := 0; i < n; i++ {
		world.Spawn(
			term.Position{X: rng.Intn(max(width, 1)), Y: rng.Intn(max(height, 1))},
			Velocity{DX: rng.Float64()*30 - 15, DY: rng.Float64()*12 - 6},
			term.Glyph{
				Rune:  'o',
				Style: tcell.StyleDefault.Foreground(palette[i%len(palette)]),
				Depth: i % 3,
			},
		)
	}
}

// BounceSystem moves glyphs and reflects them off the screen edges. Glyphs the
// render pipeline marked Visible on an even frame are drawn filled.
type BounceSystem struct {
	Screen   tcell.Screen
	Entities ecs.Query[struct {
		*term.Position
		*Velocity
		*term.Glyph
		Seen *term.Visible `ecs:"optional"`
	}]
}

func (s *BounceSystem) Execute(frame *ecs.UpdateFrame) error {
	width, height := s.Screen.Size()
	for item := range s.Entities.Values() {
		v := item.Velocity
		v.AX += v.DX * frame.DeltaTime
		v.AY += v.DY * frame.DeltaTime

		step := func(pos *int, acc *float64, speed *float64, limit int) {
			for *acc >= 1 || *acc <= -1 {
				dir := 1
				if *acc < 0 {
					dir = -1
				}
				*acc -= float64(dir)
				next := *pos + dir
				if next < 0 || next >= limit {
					*speed = -*speed
					*acc = -*acc
					continue
				}
				*pos = next
			}
		}
		step(&item.Position.X, &v.AX, &v.DX, width)
		step(&item.Position.Y, &v.AY, &v.DY, height)

		item.Glyph.Rune = 'o'
		if item.Seen != nil && item.Seen.Frame%2 == 0 {
			item.Glyph.Rune = 'O'
		}
	}
	return nil
}
