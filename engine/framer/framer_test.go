package framer

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func boxGeometry(min, max mgl32.Vec3) *scene.Geometry {
	return scene.NewGeometry([]mgl32.Vec3{min, max}, nil, nil)
}

func newTestCamera(aspect float32) camera.Camera {
	ctrl := camera.NewCameraController()
	return camera.NewCamera(camera.WithAspect(aspect), camera.WithController(ctrl))
}

func observedLogger() (logger.Logger, *observer.ObservedLogs) {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	core, logs := observer.New(level)
	return logger.NewFromZap(zap.New(core), level), logs
}

func TestFrameTwoModels(t *testing.T) {
	root := scene.NewNode("models")
	a := scene.NewMeshNode("a", scene.NewMesh(boxGeometry(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})))
	b := scene.NewMeshNode("b", scene.NewMesh(boxGeometry(mgl32.Vec3{9, -1, -1}, mgl32.Vec3{11, 1, 1})))
	require.NoError(t, root.Add(a))
	require.NoError(t, root.Add(b))

	cam := newTestCamera(16.0 / 9.0)
	res := NewFramer().Frame(root, cam)

	require.False(t, res.Skipped)
	assert.InDelta(t, -1, res.Box.Min[0], 1e-5)
	assert.InDelta(t, 11, res.Box.Max[0], 1e-5)
	assert.InDelta(t, 5, res.Center[0], 1e-5)
	assert.InDelta(t, 0, res.Center[1], 1e-5)
	assert.InDelta(t, 0, res.Center[2], 1e-5)

	halfDiagonal := float32(math.Sqrt(12*12+2*2+2*2)) / 2
	assert.InDelta(t, halfDiagonal, res.Radius, 1e-4)
	assert.GreaterOrEqual(t, res.Radius, float32(6))

	// 60 degree vertical fov binds on a wide viewport
	want := halfDiagonal / float32(math.Tan(math.Pi/6)) * DefaultMargin
	assert.InDelta(t, want, res.Distance, 1e-3)
	assert.Greater(t, res.Distance, res.Radius)

	ctrl := cam.Controller()
	assertVecInDelta(t, res.Center, ctrl.Target())
	assertVecInDelta(t, res.Position, ctrl.Position())
	assert.InDelta(t, res.Distance, ctrl.Position().Sub(ctrl.Target()).Len(), 1e-3)

	dir := ctrl.Position().Sub(ctrl.Target()).Normalize()
	assertVecInDelta(t, mgl32.Vec3{1, 1, 1}.Normalize(), dir)

	assert.InDelta(t, 0.1, cam.Near(), 1e-6)
	assert.InDelta(t, res.Distance*1000, cam.Far(), 1e-1)
	assert.Greater(t, cam.Far(), cam.Near())

	frustum := cam.Frustum()
	assert.True(t, frustum.ContainsSphere(common.Sphere{Center: res.Center, Radius: 0.5}))
	assert.True(t, frustum.IntersectsBox(res.Box))
}

func TestFrameEmptyIsSkipped(t *testing.T) {
	log, logs := observedLogger()
	cam := newTestCamera(1)
	before := cam.Controller().Position()
	near, far := cam.Near(), cam.Far()

	res := NewFramer(WithLogger(log)).Frame(scene.NewNode("empty"), cam)

	assert.True(t, res.Skipped)
	assert.Equal(t, before, cam.Controller().Position())
	assert.Equal(t, near, cam.Near())
	assert.Equal(t, far, cam.Far())
	require.Equal(t, 1, logs.FilterMessage(emptyScene).Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestFramePointGeometryUsesMinRadius(t *testing.T) {
	root := scene.NewMeshNode("point", scene.NewMesh(boxGeometry(mgl32.Vec3{2, 2, 2}, mgl32.Vec3{2, 2, 2})))
	cam := newTestCamera(1)

	res := NewFramer().Frame(root, cam)
	require.False(t, res.Skipped)
	assert.InDelta(t, DefaultMinRadius, res.Radius, 1e-7)
	assert.Greater(t, res.Distance, float32(0))
	assert.Greater(t, cam.Near(), float32(0))
	assert.Greater(t, cam.Far(), cam.Near())
}

func TestFrameIsDeterministic(t *testing.T) {
	root := scene.NewMeshNode("m", scene.NewMesh(boxGeometry(mgl32.Vec3{-3, 0, -2}, mgl32.Vec3{4, 5, 1})))
	cam := newTestCamera(1.5)
	f := NewFramer()

	first := f.Frame(root, cam)
	pos, target := cam.Controller().Position(), cam.Controller().Target()
	near, far := cam.Near(), cam.Far()

	second := f.Frame(root, cam)
	assert.Equal(t, first, second)
	assertVecInDelta(t, pos, cam.Controller().Position())
	assertVecInDelta(t, target, cam.Controller().Target())
	assert.Equal(t, near, cam.Near())
	assert.Equal(t, far, cam.Far())
}

func TestFrameFromOverridesDirection(t *testing.T) {
	root := scene.NewMeshNode("m", scene.NewMesh(boxGeometry(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})))
	cam := newTestCamera(1)
	f := NewFramer(WithViewDirection(mgl32.Vec3{0, 0, 1}), WithMargin(1.2))
	assert.Equal(t, float32(1.2), f.Margin())

	res := f.Frame(root, cam)
	assert.InDelta(t, 0, res.Position[0], 1e-5)
	assert.Greater(t, res.Position[2], float32(0))

	res = f.FrameFrom(root, cam, mgl32.Vec3{-2, 0, 0})
	assert.Less(t, res.Position[0], float32(0))
	assert.InDelta(t, 0, res.Position[2], 1e-5)
}

func TestFitDistanceNarrowViewportBindsHorizontally(t *testing.T) {
	fov := float32(math.Pi / 3)
	wide := FitDistance(1, fov, 2)
	narrow := FitDistance(1, fov, 0.5)
	assert.InDelta(t, 1/math.Tan(math.Pi/6), wide, 1e-4)
	assert.Greater(t, narrow, wide)
	assert.False(t, math.IsInf(float64(FitDistance(1, fov, 0)), 0))
}

func TestClipPlanes(t *testing.T) {
	cases := []struct {
		distance, near, far float32
	}{
		{0.001, 0.1, 10.1},
		{5, 0.1, 5000},
		{1e6, 1000, 1e9},
	}
	for _, c := range cases {
		near, far := ClipPlanes(c.distance)
		assert.InDelta(t, c.near, near, 1e-4)
		assert.InDelta(t, c.far, far, float64(c.far)*1e-5)
		assert.Greater(t, far, near)
	}
}

func assertVecInDelta(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], 1e-3, "component %d", i)
	}
}
