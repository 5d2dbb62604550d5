package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Pipeline PipelineConfig `toml:"pipeline" yaml:"pipeline"`
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
	Stress   StressConfig   `toml:"stress" yaml:"stress"`
}

type PipelineConfig struct {
	Workers        int           `toml:"workers" yaml:"workers"` // 0 = GOMAXPROCS
	FrameInterval  time.Duration `toml:"frame_interval" yaml:"frame_interval"`
	QueueWriteBack bool          `toml:"queue_write_back" yaml:"queue_write_back"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "json" or "console"
	Output string `toml:"output" yaml:"output"` // "stderr", "stdout" or a file path
}

type StressConfig struct {
	Entities int           `toml:"entities" yaml:"entities"`
	Systems  int           `toml:"systems" yaml:"systems"`
	Duration time.Duration `toml:"duration" yaml:"duration"`
}

// Load reads the config file at path over the defaults. The decoder is picked by
// extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Defaults()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("parse config %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 0 {
		return fmt.Errorf("pipeline.workers must not be negative, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.FrameInterval <= 0 {
		return fmt.Errorf("pipeline.frame_interval must be positive, got %s", c.Pipeline.FrameInterval)
	}
	if c.Stress.Entities < 0 || c.Stress.Systems < 0 {
		return fmt.Errorf("stress sizes must not be negative")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Workers:       0,
			FrameInterval: 16 * time.Millisecond, // ~60 FPS
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Stress: StressConfig{
			Entities: 50000,
			Systems:  8,
			Duration: 10 * time.Second,
		},
	}
}
