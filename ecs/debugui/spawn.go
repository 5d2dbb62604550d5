package debugui

import (
	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/render"
)

// SpawnDebugUI spawns the pipeline panels into host as ImguiItem entities: the
// stage timings of app, and browsers for the simulation and render worlds. host
// is usually the simulation world itself.
func SpawnDebugUI(host *ecs.World, app *render.App, sim *ecs.World) {
	ecs.NewSingleton[ImguiInputState](host)

	stats := NewPipelineStatsPanel(120)
	simBrowser := NewWorldBrowserPanel("Simulation World", 100)
	renderBrowser := NewWorldBrowserPanel("Render World", 100)

	host.Spawn(ImguiItem{Render: func() { stats.Render(app.Stats()) }})
	host.Spawn(ImguiItem{Render: func() { simBrowser.Render(sim) }})
	host.Spawn(ImguiItem{Render: func() { renderBrowser.Render(app.World()) }})
}
