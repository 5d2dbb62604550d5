package config

import (
	"github.com/plus3/renderworld/render"
	"go.uber.org/zap"
)

// Options translates the pipeline section into render.App options.
func (p PipelineConfig) Options(logger *zap.Logger) []render.Option {
	opts := []render.Option{
		render.WithQueueWriteBack(p.QueueWriteBack),
		render.WithLogger(logger),
	}
	if p.Workers > 0 {
		opts = append(opts, render.WithWorkerLimit(p.Workers))
	}
	return opts
}
