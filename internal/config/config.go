// Package config loads the field settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Limits applied by Validate.
const (
	MinFPS         = 10
	MaxFPS         = 120
	MinTextureSize = 32
	MaxTextureSize = 1024
)

// Label display modes.
const (
	LabelsNone    = "none"
	LabelsNearest = "nearest"
	LabelsAll     = "all"
)

// Config holds user-tunable settings.
type Config struct {
	// Labels is the catalog; nil means the built-in tech stack.
	Labels      []string `yaml:"labels"`
	TextureSize int      `yaml:"texture_size"`
	FPS         int      `yaml:"fps"`
	// Seed drives placement; 0 picks one from the clock.
	Seed      int64   `yaml:"seed"`
	TimeStep  float64 `yaml:"time_step"`
	LabelMode string  `yaml:"label_mode"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		TextureSize: 512,
		FPS:         60,
		TimeStep:    0.01,
		LabelMode:   LabelsNearest,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate clamps numeric settings into range and rejects bad labels.
func (c *Config) Validate() error {
	c.FPS = clampInt(c.FPS, MinFPS, MaxFPS)
	c.TextureSize = clampInt(c.TextureSize, MinTextureSize, MaxTextureSize)
	if c.TimeStep <= 0 {
		c.TimeStep = DefaultConfig().TimeStep
	}

	switch c.LabelMode {
	case "":
		c.LabelMode = LabelsNearest
	case LabelsNone, LabelsNearest, LabelsAll:
	default:
		return fmt.Errorf("unknown label_mode %q", c.LabelMode)
	}

	for i, l := range c.Labels {
		if l == "" {
			return fmt.Errorf("label %d: %w", i, errEmptyLabel)
		}
	}
	return nil
}

// Overrides are settings given on the command line. They win over the file,
// including on reload.
type Overrides struct {
	Seed int64 // 0 keeps the file value
	FPS  int   // 0 keeps the file value
}

// Apply sets the non-zero overrides on c and re-validates it.
func (o Overrides) Apply(c *Config) error {
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.FPS != 0 {
		c.FPS = o.FPS
	}
	return c.Validate()
}

var errEmptyLabel = errors.New("empty label")

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
