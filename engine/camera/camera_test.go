package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3InDelta(t *testing.T, expected, actual mgl32.Vec3, delta float64) {
	t.Helper()
	for i := range 3 {
		assert.InDelta(t, expected[i], actual[i], delta, "component %d", i)
	}
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera(WithController(NewCameraController()))

	assert.InDelta(t, math.Pi/3, c.Fov(), 1e-6)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(10000), c.Far())
	assertVec3InDelta(t, mgl32.Vec3{0, 0, 10}, c.Position(), 1e-5)

	// the origin lands in the middle of the screen
	clip := c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, clip.X()/clip.W(), 1e-5)
	assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-5)
}

func TestCameraAspectClamp(t *testing.T) {
	c := NewCamera()
	c.SetAspect(0)
	assert.Equal(t, float32(MinAspect), c.Aspect())
	c.SetAspect(-3)
	assert.Equal(t, float32(MinAspect), c.Aspect())
	c.SetAspect(1.5)
	assert.Equal(t, float32(1.5), c.Aspect())
}

func TestCameraClipInvariant(t *testing.T) {
	c := NewCamera()

	c.SetClip(-1, -5)
	assert.Greater(t, c.Near(), float32(0))
	assert.Greater(t, c.Far(), c.Near())

	c.SetClip(2, 1)
	assert.Equal(t, float32(2), c.Near())
	assert.Greater(t, c.Far(), c.Near())
}

func TestCameraFollowsController(t *testing.T) {
	ctrl := NewCameraController()
	c := NewCamera(WithController(ctrl))

	ctrl.Place(mgl32.Vec3{10, 0, 0}, mgl32.Vec3{0, 0, 0})
	c.Update()

	view := c.ViewMatrix()
	eye := view.Mul4x1(mgl32.Vec4{10, 0, 0, 1})
	assertVec3InDelta(t, mgl32.Vec3{}, eye.Vec3(), 1e-4)
	assert.True(t, c.Frustum().ContainsSphere(common.Sphere{Radius: 1}))
	assert.False(t, c.Frustum().ContainsSphere(common.Sphere{Center: mgl32.Vec3{20, 0, 0}, Radius: 1}))
}

func TestGPUCameraUniformMarshal(t *testing.T) {
	c := NewCamera(WithController(NewCameraController()))
	u := NewGPUCameraUniform(c, mgl32.Vec2{})

	buf := u.Marshal()
	require.Len(t, buf, 144)
	assert.Equal(t, 144, u.Size())
	assert.InDelta(t, 10, u.CameraPosition[2], 1e-5)
}
