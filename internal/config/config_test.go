package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dyuri/civ6map/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	p, err := cfg.BuildPalette()
	require.NoError(t, err)
	assert.Equal(t, model.ColorRed, p.OwnerColor(7))
	assert.Equal(t, model.ColorBlue, p.OwnerColor(0))
	assert.Equal(t, model.ColorGreen, p.OwnerColor(1))
	assert.Equal(t, model.ColorWhite, p.OwnerColor(4))
	assert.Equal(t, model.ColorNeutral, p.Neutral)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, lvl)
	assert.Equal(t, 1.0, cfg.Render.Scale)
}

func TestLoad_ValidConfig(t *testing.T) {
	yamlContent := `
palette:
  owners:
    2: "#ffff00"
  other: "#101010"
logging:
  level: debug
render:
  scale: 0.5
`
	cfg, err := Load(strings.NewReader(yamlContent))
	require.NoError(t, err)

	p, err := cfg.BuildPalette()
	require.NoError(t, err)
	assert.Equal(t, model.Color{R: 255, G: 255}, p.OwnerColor(2))
	assert.Equal(t, model.Color{R: 16, G: 16, B: 16}, p.OwnerColor(9))
	assert.Equal(t, model.ColorRed, p.OwnerColor(7)) // Built-in entries stay
	assert.Equal(t, model.ColorNeutral, p.Neutral)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, lvl)
	assert.Equal(t, 0.5, cfg.Render.Scale)
}

func TestBuildPalette_Invalid(t *testing.T) {
	cfg, err := Load(strings.NewReader("palette:\n  owners:\n    3: \"red\"\n"))
	require.NoError(t, err)
	_, err = cfg.BuildPalette()
	assert.Error(t, err)

	cfg, err = Load(strings.NewReader("palette:\n  owners:\n    300: \"#ffffff\"\n"))
	require.NoError(t, err)
	_, err = cfg.BuildPalette()
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(strings.NewReader("palette: [unclosed"))
	assert.Error(t, err)
}

func TestLogLevel_Invalid(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "chatty"
	_, err := cfg.LogLevel()
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)

	path := filepath.Join(t.TempDir(), "civ6map.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}
