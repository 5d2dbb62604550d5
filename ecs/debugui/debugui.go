// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It manages ImGui rendering and input state through ECS components and systems, and
// ships panels that inspect a render pipeline and the worlds it moves between.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/renderworld/ecs"
)

// ImguiSystem queries all ImguiItem components and defers their render functions.
// It also updates the ImguiInputState singleton with current input capture state.
type ImguiSystem struct {
	Items      ecs.Query[struct{ *ImguiItem }]
	InputState ecs.Singleton[ImguiInputState]
}

// Execute updates input state and queues all ImGui render functions for execution.
func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) error {
	if state := i.InputState.Get(); state != nil {
		state.WantCaptureMouse = imgui.CurrentIO().WantCaptureMouse()
		state.WantCaptureKeyboard = imgui.CurrentIO().WantCaptureKeyboard()
	}

	for item := range i.Items.Values() {
		render := item.Render
		frame.Commands.Defer(func(*ecs.World) { render() })
	}
	return nil
}

func (i *ImguiSystem) Access() ecs.Access {
	return ecs.Read[ImguiItem]().Merge(ecs.Write[ImguiInputState]())
}
