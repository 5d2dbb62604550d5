package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/renderworld/render"
)

// PipelineStatsPanel shows frame times and per-stage timings of a render.App.
type PipelineStatsPanel struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
	samples       int
	lastFrame     uint64
}

func NewPipelineStatsPanel(historyFrames int) *PipelineStatsPanel {
	return &PipelineStatsPanel{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
	}
}

// Record adds the last frame's duration to the history, once per frame.
func (ps *PipelineStatsPanel) Record(stats render.FrameStats) {
	if stats.Frames == ps.lastFrame {
		return
	}
	ps.lastFrame = stats.Frames

	ps.frameHistory[ps.frameIndex] = float32(stats.LastFrame.Seconds() * 1000.0)
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
	ps.samples = min(ps.samples+1, ps.historyFrames)
}

// AverageFrameMillis averages the recorded history
func (ps *PipelineStatsPanel) AverageFrameMillis() float32 {
	if ps.samples == 0 {
		return 0
	}
	var total float32
	for _, ft := range ps.frameHistory {
		total += ft
	}
	return total / float32(ps.samples)
}

func (ps *PipelineStatsPanel) Render(stats render.FrameStats) {
	ps.Record(stats)

	if !imgui.BeginV("Render Pipeline", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Frames: %d (%d failed)", stats.Frames, stats.Failures))
	imgui.Text(fmt.Sprintf("Scratch worlds created: %d", stats.ScratchCreated))
	imgui.Text(fmt.Sprintf("Render world resources: %d", stats.World.ResourceCount))

	avg := ps.AverageFrameMillis()
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000.0/avg))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("StageTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Stage")
		imgui.TableSetupColumn("Systems")
		imgui.TableSetupColumn("Last")
		imgui.TableSetupColumn("Runs")
		imgui.TableHeadersRow()

		for _, stage := range stats.Stages {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(stage.Name)
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", stage.SystemCount))
			imgui.TableNextColumn()
			imgui.Text(stage.LastDuration.String())
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", stage.Runs))
		}

		imgui.EndTable()
	}

	for _, stage := range stats.Stages {
		if len(stage.Systems) == 0 {
			continue
		}
		if imgui.TreeNodeStr(stage.Name + " systems") {
			for _, sys := range stage.Systems {
				imgui.BulletText(fmt.Sprintf("%s: avg %s, max %s", sys.Name, sys.AvgDuration, sys.MaxDuration))
			}
			imgui.TreePop()
		}
	}

	imgui.End()
}
