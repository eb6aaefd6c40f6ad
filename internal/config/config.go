// Package config loads civ6map settings from YAML.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dyuri/civ6map/internal/binary"
	"github.com/dyuri/civ6map/internal/model"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// PaletteConfig holds tile colors as #rrggbb strings
type PaletteConfig struct {
	Owners  map[int]string `yaml:"owners"`  // ownership index -> color
	Other   string         `yaml:"other"`   // any owner not listed
	Neutral string         `yaml:"neutral"` // unowned tiles
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
}

// RenderConfig holds image output settings
type RenderConfig struct {
	Scale float64 `yaml:"scale"` // Resize factor applied after rasterizing
}

// Config is the top-level configuration
type Config struct {
	Palette PaletteConfig `yaml:"palette"`
	Logging LoggingConfig `yaml:"logging"`
	Render  RenderConfig  `yaml:"render"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Palette: PaletteConfig{
			Owners: map[int]string{
				0: model.ColorBlue.Hex(),
				1: model.ColorGreen.Hex(),
				7: model.ColorRed.Hex(),
			},
			Other:   model.ColorWhite.Hex(),
			Neutral: model.ColorNeutral.Hex(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Render: RenderConfig{
			Scale: 1,
		},
	}
}

// Load reads configuration from an io.Reader. Values not present keep
// their defaults.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()

	// If the reader is nil, it's like an empty file, return defaults.
	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Load(nil)
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

// BuildPalette converts the configured colors into a tile palette
func (c *Config) BuildPalette() (*binary.Palette, error) {
	p := binary.DefaultPalette()

	for idx, s := range c.Palette.Owners {
		if idx < 0 || idx > 255 {
			return nil, fmt.Errorf("palette owner %d out of range 0-255", idx)
		}
		col, err := model.ParseHexColor(s)
		if err != nil {
			return nil, fmt.Errorf("palette owner %d: %w", idx, err)
		}
		p.Owners[uint8(idx)] = col
	}

	if c.Palette.Other != "" {
		col, err := model.ParseHexColor(c.Palette.Other)
		if err != nil {
			return nil, fmt.Errorf("palette other: %w", err)
		}
		p.Other = col
	}
	if c.Palette.Neutral != "" {
		col, err := model.ParseHexColor(c.Palette.Neutral)
		if err != nil {
			return nil, fmt.Errorf("palette neutral: %w", err)
		}
		p.Neutral = col
	}

	return p, nil
}

// LogLevel parses the configured logging level
func (c *Config) LogLevel() (logrus.Level, error) {
	if c.Logging.Level == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(c.Logging.Level))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("logging level: %w", err)
	}
	return lvl, nil
}
