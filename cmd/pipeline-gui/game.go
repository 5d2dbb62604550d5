package main

import (
	"context"
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/renderworld/backend/sprite"
	spriteebiten "github.com/plus3/renderworld/backend/sprite/ebiten"
	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/ecs/debugui"
	debugui_ebiten "github.com/plus3/renderworld/ecs/debugui/ebiten"
	"github.com/plus3/renderworld/render"
)

// Game implements ebiten.Game. Update runs the UI systems, the colony
// simulation and one render pipeline frame inside a single ImGui frame; Draw
// only copies the finished canvas and the ImGui overlay to the screen.
type Game struct {
	ctx       context.Context
	sim       *ecs.World
	ui        *ecs.Scheduler
	scheduler *ecs.Scheduler
	app       *render.App
	canvas    *spriteebiten.Canvas
	imgui     debugui_ebiten.ImguiBackend
}

func (g *Game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyQ) || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if err := g.ctx.Err(); err != nil {
		return ebiten.Termination
	}

	dt := 1.0 / float64(ebiten.TPS())
	return g.imgui.Frame(func() error {
		if err := g.ui.Once(dt); err != nil {
			return fmt.Errorf("ui: %w", err)
		}
		if err := g.scheduler.Once(dt); err != nil {
			return fmt.Errorf("simulation tick: %w", err)
		}
		return g.app.Update(g.ctx, g.sim, dt)
	})
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.canvas.DrawTo(screen)
	g.imgui.DrawOverlay(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.imgui.Layout(outsideWidth, outsideHeight)
	g.canvas.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// InputState remembers the mouse between frames for camera dragging.
type InputState struct {
	LastMouseX, LastMouseY int
	Dragging               bool
	DragStartX, DragStartY float32
	PrevMouseLeft          bool
}

// CameraControlSystem pans the camera by dragging and zooms around the cursor
// with the wheel, unless ImGui wants the mouse.
type CameraControlSystem struct {
	Camera     ecs.Singleton[sprite.Camera]
	Input      ecs.Singleton[InputState]
	ImguiInput ecs.Singleton[debugui.ImguiInputState]
}

func (s *CameraControlSystem) Execute(frame *ecs.UpdateFrame) error {
	camera := s.Camera.Get()
	input := s.Input.Get()
	if camera == nil || input == nil {
		return nil
	}
	if imguiInput := s.ImguiInput.Get(); imguiInput != nil && imguiInput.WantCaptureMouse {
		input.Dragging = false
		return nil
	}

	mx, my := ebiten.CursorPosition()
	mouseLeft := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	if mouseLeft && !input.PrevMouseLeft {
		input.Dragging = true
		input.DragStartX = camera.X
		input.DragStartY = camera.Y
		input.LastMouseX = mx
		input.LastMouseY = my
	}
	if !mouseLeft {
		input.Dragging = false
	}
	if input.Dragging {
		camera.X = input.DragStartX - float32(mx-input.LastMouseX)/camera.Scale()
		camera.Y = input.DragStartY - float32(my-input.LastMouseY)/camera.Scale()
	}
	input.PrevMouseLeft = mouseLeft

	if _, dy := ebiten.Wheel(); dy != 0 {
		oldScale := camera.Scale()
		camera.Zoom = min(max(camera.Zoom+float32(dy)*0.2, 0.25), 4)

		mouseWorldX := camera.X + float32(mx)/oldScale
		mouseWorldY := camera.Y + float32(my)/oldScale
		camera.X = mouseWorldX - float32(mx)/camera.Scale()
		camera.Y = mouseWorldY - float32(my)/camera.Scale()
	}
	return nil
}

func (s *CameraControlSystem) Access() ecs.Access {
	return ecs.Write[sprite.Camera]().Merge(ecs.Write[InputState](), ecs.Read[debugui.ImguiInputState]())
}

// spawnColonyPanel adds an ImGui window listing every colony's stock.
func spawnColonyPanel(world *ecs.World) {
	colonies := ecs.NewView[struct {
		*Colony
		*sprite.Position
	}](world)
	tasks := ecs.NewView[struct{ *Task }](world)

	world.Spawn(debugui.ImguiItem{Render: func() {
		imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
		if !imgui.BeginV("Colonies", nil, 0) {
			imgui.End()
			return
		}

		counts := map[TaskKind]int{}
		for task := range tasks.Values() {
			counts[task.Kind]++
		}
		imgui.Text(fmt.Sprintf("Idle %d / Gathering %d / Returning %d",
			counts[TaskIdle], counts[TaskGather], counts[TaskReturn]))
		imgui.Separator()

		for id, colony := range colonies.Iter() {
			imgui.Text(fmt.Sprintf("%s (%s) at %.0f,%.0f: stock %d",
				colony.Name, id, colony.Position.X, colony.Position.Y, colony.Stock))
		}
		imgui.End()
	}})
}
