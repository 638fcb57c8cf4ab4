package main

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeySession(t *testing.T) viewer.Session {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeHeadless, nil, renderer.WithSize(800, 600))
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Composer.Enabled = false
	cfg.Views = []config.ViewConfig{
		{Name: "front", Position: [3]float32{0, 0, 8}},
		{Name: "top", Position: [3]float32{0, 8, 0.01}},
	}
	s, err := viewer.NewSession(r, viewer.WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(s.Dispose)
	require.NoError(t, s.Load(context.Background(), nil))
	return s
}

func TestNumberKeysSelectPresetViews(t *testing.T) {
	s := newKeySession(t)
	keys := newKeyBindings(s, logger.Nop())

	keys.handle(common.Key1 + 1)
	require.NoError(t, s.Tick(1))
	pos, _ := s.CameraPose()
	assert.InDelta(t, 8, pos[1], 1e-2)

	// no preset bound to 9
	keys.handle(common.Key9)
	require.NoError(t, s.Tick(1))
	after, _ := s.CameraPose()
	assert.True(t, pos.ApproxEqualThreshold(after, 1e-4))
}

func TestToggleKeys(t *testing.T) {
	s := newKeySession(t)
	keys := newKeyBindings(s, logger.Nop())

	stats := s.Profiler().Visible()
	keys.handle(common.KeyS)
	assert.Equal(t, !stats, s.Profiler().Visible())

	axes := s.Scene().AxesVisible()
	keys.handle(common.KeyA)
	assert.Equal(t, !axes, s.Scene().AxesVisible())
}

func TestUnboundAndPoseKeys(t *testing.T) {
	s := newKeySession(t)
	keys := newKeyBindings(s, logger.Nop())

	before, _ := s.CameraPose()
	keys.handle(common.KeySpace)
	keys.handle(common.KeyF)
	keys.handle(uint32('Q'))
	after, _ := s.CameraPose()
	assert.Equal(t, before, after)
}
