package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, float32(60), cfg.Camera.Fov)
	assert.Equal(t, [3]float32{0, 0, 10}, cfg.Camera.Position)
	assert.True(t, cfg.Composer.UseTAA)
	assert.Equal(t, 1, cfg.Composer.TAASampleLevel)
	assert.True(t, cfg.Composer.UseColorCorrection)
	assert.False(t, cfg.Composer.UseSSAO)
	assert.Equal(t, float32(0.5), cfg.Environment.Intensity)
	assert.Equal(t, float32(1.1), cfg.Framing.Margin)
}

func TestReadYAMLKeepsDefaults(t *testing.T) {
	src := `
composer:
  useSSAO: true
  useTAA: false
  highlightColor: "#ff0000"
views:
  - name: overview
    position: [10, 20, 30]
    target: [0, 0, 0]
`
	cfg, err := ReadFormat(strings.NewReader(src), ".yaml")
	require.NoError(t, err)

	assert.True(t, cfg.Composer.UseSSAO)
	assert.False(t, cfg.Composer.UseTAA)
	assert.True(t, cfg.Composer.UseColorCorrection)
	assert.Equal(t, float32(1), cfg.HighlightColor().R)
	assert.Equal(t, float32(0), cfg.HighlightColor().G)
	assert.Equal(t, 1600, cfg.Window.Width)

	v, ok := cfg.View("overview")
	require.True(t, ok)
	assert.Equal(t, [3]float32{10, 20, 30}, v.Position)
	_, ok = cfg.View("missing")
	assert.False(t, ok)
}

func TestReadTOML(t *testing.T) {
	src := `
[window]
title = "plant"
width = 800

[environment]
path = "env/studio.exr"
intensity = 1.5

[[views]]
name = "room"
position = [1.0, 2.0, 3.0]
target = [4.0, 5.0, 6.0]
`
	cfg, err := ReadFormat(strings.NewReader(src), ".TOML")
	require.NoError(t, err)

	assert.Equal(t, "plant", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 900, cfg.Window.Height)
	assert.Equal(t, "env/studio.exr", cfg.Environment.Path)
	assert.Equal(t, float32(1.5), cfg.Environment.Intensity)
	require.Len(t, cfg.Views, 1)
	assert.Equal(t, [3]float32{4, 5, 6}, cfg.Views[0].Target)
}

func TestReadEmptyYAML(t *testing.T) {
	cfg, err := ReadFormat(strings.NewReader("# nothing here\n"), ".yml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestNormalizeClamps(t *testing.T) {
	cfg := Default()
	cfg.Window.Width = -1
	cfg.Camera.Fov = 200
	cfg.Camera.Far = 0.01
	cfg.Controls.DampingFactor = 4
	cfg.Composer.TAASampleLevel = 99
	cfg.Composer.HighlightColor = "bright"
	cfg.Environment.Intensity = -3
	cfg.Framing.Margin = 0.5
	cfg.Framing.ViewDirection = [3]float32{}

	cfg.Normalize()

	d := Default()
	assert.Equal(t, d.Window.Width, cfg.Window.Width)
	assert.Equal(t, d.Camera.Fov, cfg.Camera.Fov)
	assert.Greater(t, cfg.Camera.Far, cfg.Camera.Near)
	assert.Equal(t, float32(1), cfg.Controls.DampingFactor)
	assert.Equal(t, 5, cfg.Composer.TAASampleLevel)
	assert.Equal(t, d.Composer.HighlightColor, cfg.Composer.HighlightColor)
	assert.Equal(t, float32(0), cfg.Environment.Intensity)
	assert.Equal(t, d.Framing.Margin, cfg.Framing.Margin)
	assert.Equal(t, d.Framing.ViewDirection, cfg.Framing.ViewDirection)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "viewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)

	_, err = Load(filepath.Join(dir, "viewer.json"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("window: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}
