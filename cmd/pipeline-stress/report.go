package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/render"
)

type Report struct {
	// Configuration
	Duration       time.Duration
	Entities       int
	Systems        int
	Workers        int
	QueueWriteBack bool

	// Results
	TotalFrames    int64
	TotalTime      time.Duration
	SimulationTime Stats
	FrameTime      Stats
	DrawCalls      int64
	Instances      int64
	Pipeline       render.FrameStats
	Simulation     ecs.StageStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		s.Min = min(s.Min, sample)
		s.Max = max(s.Max, sample)
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

const reportTemplate = `
# Render Pipeline Stress Report

## Configuration
- **Run Duration:** {{.Duration}}
- **Initial Entities:** {{.Entities}}
- **Simulation Systems:** {{.Systems}}
- **Workers per Stage:** {{if .Workers}}{{.Workers}}{{else}}GOMAXPROCS{{end}}
- **Queue Write-Back:** {{.QueueWriteBack}}

## Results
- **Total Frames:** {{.TotalFrames}} ({{.Pipeline.Failures}} failed)
- **Total Time:** {{.TotalTime}}
- **Scratch Worlds Created:** {{.Pipeline.ScratchCreated}}
- **Draw Calls / Instances:** {{.DrawCalls}} / {{.Instances}}
- **Simulation Update:**
  - **Avg:** {{.SimulationTime.Avg}}
  - **Min:** {{.SimulationTime.Min}}
  - **Max:** {{.SimulationTime.Max}}
- **Render Frame:**
  - **Avg:** {{.FrameTime.Avg}}
  - **Min:** {{.FrameTime.Min}}
  - **Max:** {{.FrameTime.Max}}

## Render Stages
| Stage | Systems | Runs | Total | Avg |
|---|---|---|---|---|
{{range .Pipeline.Stages}}| {{.Name}} | {{.SystemCount}} | {{.Runs}} | {{.TotalDuration}} | {{avg .TotalDuration .Runs}} |
{{end}}
## Simulation Systems
| System | Runs | Min | Avg | Max |
|---|---|---|---|---|
{{range .Simulation.Systems}}| {{.Name}} | {{.ExecutionCount}} | {{.MinDuration}} | {{.AvgDuration}} | {{.MaxDuration}} |
{{end}}
## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}`

func (r *Report) Generate(w io.Writer) error {
	fm := template.FuncMap{
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
		"avg": func(total time.Duration, runs int64) string {
			if runs == 0 {
				return "-"
			}
			return fmt.Sprint(total / time.Duration(runs))
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
