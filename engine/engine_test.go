package engine

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/Carmen-Shannon/oxy-viewer/engine/viewer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadlessSession(t *testing.T) (viewer.Session, *renderer.HeadlessBackend) {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeHeadless, nil, renderer.WithSize(640, 480))
	require.NoError(t, err)
	cfg := config.Default()
	cfg.Composer.Enabled = false
	s, err := viewer.NewSession(r, viewer.WithConfig(cfg))
	require.NoError(t, err)
	t.Cleanup(s.Dispose)
	return s, r.Backend().(*renderer.HeadlessBackend)
}

func runWithTimeout(t *testing.T, e Engine) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		e.Quit()
		t.Fatal("engine did not stop")
	}
}

func TestHeadlessRunStopsAfterFrameBudget(t *testing.T) {
	s, backend := newHeadlessSession(t)
	require.NoError(t, s.Load(context.Background(), nil))

	e, err := NewEngine(s, WithMaxFrames(3))
	require.NoError(t, err)
	assert.Nil(t, e.Window())

	var callbacks int
	e.SetRenderCallback(func(float32) { callbacks++ })
	runWithTimeout(t, e)

	assert.Equal(t, uint64(3), e.Frames())
	assert.Equal(t, 3, callbacks)
	assert.Len(t, backend.OpsOfKind(renderer.OpEndFrame), 3)
	assert.Equal(t, viewer.StateRendering, s.State())
}

func TestQuitStopsIdleEngine(t *testing.T) {
	s, backend := newHeadlessSession(t)

	e, err := NewEngine(s)
	require.NoError(t, err)
	go func() {
		time.Sleep(30 * time.Millisecond)
		e.Quit()
		e.Quit()
	}()
	runWithTimeout(t, e)

	assert.Zero(t, e.Frames())
	assert.Empty(t, backend.OpsOfKind(renderer.OpBeginFrame))
}

func TestDisposedSessionStopsEngine(t *testing.T) {
	s, _ := newHeadlessSession(t)
	require.NoError(t, s.Load(context.Background(), nil))
	s.Dispose()

	e, err := NewEngine(s, WithRenderFrameLimit(60))
	require.NoError(t, err)
	runWithTimeout(t, e)
	assert.Zero(t, e.Frames())
}

func TestNewEngineRequiresSession(t *testing.T) {
	_, err := NewEngine(nil)
	assert.Error(t, err)
}

func TestFrameDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), frameDuration(0))
	assert.Equal(t, time.Duration(0), frameDuration(-5))
	assert.Equal(t, 20*time.Millisecond, frameDuration(50))
}

func TestOrbitInputDrags(t *testing.T) {
	ctrl := camera.NewCameraController(camera.WithPosition(mgl32.Vec3{0, 0, 10}))
	in := newOrbitInput(ctrl, func() int { return 100 })

	azimuth := ctrl.Azimuth()
	in.press(common.MouseButtonLeft, true, 50, 50)
	// a second button does not take over the drag
	in.press(common.MouseButtonRight, true, 50, 50)
	in.move(60, 50)
	require.True(t, ctrl.Update(1.0/60))
	assert.NotEqual(t, azimuth, ctrl.Azimuth())
	assert.Equal(t, mgl32.Vec3{}, ctrl.Target())

	in.press(common.MouseButtonLeft, false, 60, 50)
	in.move(90, 90)
	assert.False(t, ctrl.Update(1.0/60))

	in.press(common.MouseButtonRight, true, 0, 0)
	in.move(10, 0)
	require.True(t, ctrl.Update(1.0/60))
	assert.NotEqual(t, mgl32.Vec3{}, ctrl.Target())
	in.press(common.MouseButtonRight, false, 10, 0)

	radius := ctrl.Radius()
	in.scroll(1)
	require.True(t, ctrl.Update(1.0/60))
	assert.Less(t, ctrl.Radius(), radius)
}

// recordingWindow captures the callbacks the engine binds. Methods the engine does not call are
// left to the embedded nil interface.
type recordingWindow struct {
	window.Window

	width, height int
	doubleClick   func(x, y float32)
}

func (w *recordingWindow) SetUpdateCallback(func()) {}
func (w *recordingWindow) SetResizeCallback(func(width, height int)) {}
func (w *recordingWindow) SetPixelRatioCallback(func(ratio float32)) {}
func (w *recordingWindow) SetScrollCallback(func(delta float32)) {}
func (w *recordingWindow) SetMouseButtonCallback(func(int, bool, float32, float32)) {}
func (w *recordingWindow) SetMouseMoveCallback(func(x, y float32)) {}
func (w *recordingWindow) SetDoubleClickCallback(callback func(x, y float32)) {
	w.doubleClick = callback
}
func (w *recordingWindow) Height() int { return w.height }

func TestDoubleClickFocusesPickedModel(t *testing.T) {
	s, _ := newHeadlessSession(t)
	require.NoError(t, s.Load(context.Background(), nil))

	geometry := scene.NewGeometry([]mgl32.Vec3{
		{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0},
	}, nil, []uint32{0, 1, 2, 0, 2, 3})
	n := scene.NewMeshNode("panel", scene.NewMesh(geometry, material.NewMaterial()))
	n.Position = mgl32.Vec3{0.5, 0.3, -2}
	require.NoError(t, s.Scene().AddModel(n))

	w := &recordingWindow{width: 640, height: 480}
	_, err := NewEngine(s, WithWindow(w))
	require.NoError(t, err)
	require.NotNil(t, w.doubleClick)

	// a corner of the viewport misses the panel
	w.doubleClick(0, 0)
	require.NoError(t, s.Tick(1))
	_, target := s.CameraPose()
	assert.InDelta(t, 0, target.Len(), 1e-6)

	w.doubleClick(320, 240)
	require.NoError(t, s.Tick(1))
	_, target = s.CameraPose()
	assert.InDelta(t, 0.5, target[0], 1e-3)
	assert.InDelta(t, 0.3, target[1], 1e-3)
	assert.InDelta(t, -2, target[2], 1e-3)
}
