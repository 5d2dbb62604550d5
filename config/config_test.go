package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plus3/renderworld/config"
	"github.com/plus3/renderworld/ecs"
	"github.com/plus3/renderworld/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "pipeline.toml", `
[pipeline]
workers = 4
frame_interval = "8ms"
queue_write_back = true

[logging]
level = "debug"
format = "json"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 8*time.Millisecond, cfg.Pipeline.FrameInterval)
	assert.True(t, cfg.Pipeline.QueueWriteBack)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// sections missing from the file keep their defaults
	assert.Equal(t, config.Defaults().Stress, cfg.Stress)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "pipeline.yml", `
pipeline:
  frame_interval: 33ms
stress:
  entities: 1000
  systems: 2
  duration: 1s
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 33*time.Millisecond, cfg.Pipeline.FrameInterval)
	assert.False(t, cfg.Pipeline.QueueWriteBack)
	assert.Equal(t, config.StressConfig{Entities: 1000, Systems: 2, Duration: time.Second}, cfg.Stress)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errText string
	}{
		{"unknown extension", "pipeline.json", `{}`, "unsupported extension"},
		{"bad toml", "bad.toml", `[pipeline`, "parse config"},
		{"bad yaml", "bad.yaml", "pipeline: [", "parse config"},
		{"negative workers", "neg.toml", "[pipeline]\nworkers = -1\n", "pipeline.workers"},
		{"zero interval", "zero.yaml", "pipeline:\n  frame_interval: 0s\n", "frame_interval"},
		{"bad format", "fmt.toml", "[logging]\nformat = \"xml\"\n", "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	logger, err := config.NewLogger(config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = config.NewLogger(config.LoggingConfig{Level: "nonsense", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestPipelineOptions(t *testing.T) {
	cfg := config.PipelineConfig{Workers: 2, FrameInterval: time.Millisecond, QueueWriteBack: true}

	app, err := render.New(ecs.NewComponentRegistry(), nil, cfg.Options(zap.NewNop())...)
	require.NoError(t, err)
	assert.True(t, app.QueueWriteBack())

	app, err = render.New(ecs.NewComponentRegistry(), nil, config.Defaults().Pipeline.Options(nil)...)
	require.NoError(t, err)
	assert.False(t, app.QueueWriteBack())
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := config.NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("frame complete", zap.Int("frame", 3))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"frame":3`)
}
