package render

import "go.uber.org/zap"

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger frame failures and timings are written to
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithQueueWriteBack lends the simulation world to the Queue stage each frame so
// Queue systems can record changes for it. Off by default.
func WithQueueWriteBack(enabled bool) Option {
	return func(a *App) {
		a.queueWriteBack = enabled
	}
}

// WithWorkerLimit bounds how many systems of one stage run at the same time
func WithWorkerLimit(n int) Option {
	return func(a *App) {
		a.workers = n
	}
}

// WithScratchCache makes the App take its scratch worlds from cache
func WithScratchCache(cache *ScratchCache) Option {
	return func(a *App) {
		if cache != nil {
			a.scratch = cache
		}
	}
}
