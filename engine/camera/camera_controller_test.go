package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestControllerPlaceDerivesSpherical(t *testing.T) {
	ctrl := NewCameraController()
	pos := mgl32.Vec3{5, 5, 5}
	ctrl.Place(pos, mgl32.Vec3{})

	assert.Equal(t, pos, ctrl.Position())
	assert.InDelta(t, math.Sqrt(75), ctrl.Radius(), 1e-4)
	assert.InDelta(t, math.Pi/4, ctrl.Azimuth(), 1e-5)
	assert.InDelta(t, math.Asin(1/math.Sqrt(3)), ctrl.Elevation(), 1e-5)

	// moving the target keeps the offset
	ctrl.SetTarget(mgl32.Vec3{1, 0, 0})
	assertVec3InDelta(t, mgl32.Vec3{6, 5, 5}, ctrl.Position(), 1e-4)
}

func TestControllerRotateWithoutDamping(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.Rotate(math.Pi/2, 0)
	assertVec3InDelta(t, mgl32.Vec3{0, 0, 10}, ctrl.Position(), 1e-5)

	assert.True(t, ctrl.Update(1.0/60))
	assertVec3InDelta(t, mgl32.Vec3{10, 0, 0}, ctrl.Position(), 1e-4)
	assert.InDelta(t, 10, ctrl.Radius(), 1e-5)

	assert.False(t, ctrl.Update(1.0/60))
}

func TestControllerDampingDecay(t *testing.T) {
	ctrl := NewCameraController(WithDamping(true, 0.5))
	assert.True(t, ctrl.DampingEnabled())

	ctrl.Rotate(1, 0)
	ctrl.Update(0)
	assert.InDelta(t, 0.5, ctrl.Azimuth(), 1e-5)
	ctrl.Update(0)
	assert.InDelta(t, 0.75, ctrl.Azimuth(), 1e-5)
	ctrl.Update(0)
	assert.InDelta(t, 0.875, ctrl.Azimuth(), 1e-5)

	for range 100 {
		ctrl.Update(0)
	}
	assert.InDelta(t, 1, ctrl.Azimuth(), 1e-5)
	assert.False(t, ctrl.Update(0))
}

func TestControllerElevationClamp(t *testing.T) {
	ctrl := NewCameraController(WithElevationBounds(-0.5, 0.5))
	ctrl.Rotate(0, 2)
	ctrl.Update(0)
	assert.InDelta(t, 0.5, ctrl.Elevation(), 1e-6)
}

func TestControllerZoomAndDolly(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.Zoom(1)
	ctrl.Update(0)
	assert.InDelta(t, 9.5, ctrl.Radius(), 1e-4)

	ctrl.Dolly(2)
	ctrl.Update(0)
	assert.InDelta(t, 19, ctrl.Radius(), 1e-4)

	bounded := NewCameraController(WithRadiusBounds(5, 12))
	bounded.Dolly(100)
	bounded.Update(0)
	assert.InDelta(t, 12, bounded.Radius(), 1e-5)
}

func TestControllerPan(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.Pan(0.1, 0)
	ctrl.Update(0)
	assertVec3InDelta(t, mgl32.Vec3{1, 0, 0}, ctrl.Target(), 1e-5)
	assertVec3InDelta(t, mgl32.Vec3{1, 0, 10}, ctrl.Position(), 1e-4)

	// ground-plane pan keeps the target's height
	ground := NewCameraController()
	ground.Place(mgl32.Vec3{0, 10, 10}, mgl32.Vec3{})
	ground.Pan(0, 0.1)
	ground.Update(0)
	target := ground.Target()
	assert.InDelta(t, 0, target.Y(), 1e-5)
	assert.Less(t, target.Z(), float32(0))

	screen := NewCameraController(WithScreenSpacePanning(true))
	screen.Pan(0, 0.1)
	screen.Update(0)
	assertVec3InDelta(t, mgl32.Vec3{0, 1, 0}, screen.Target(), 1e-5)
}

func TestControllerPlaceClearsPendingInput(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.Rotate(1, 1)
	ctrl.Pan(1, 1)
	ctrl.Place(mgl32.Vec3{0, 0, 4}, mgl32.Vec3{})

	assert.False(t, ctrl.Update(0))
	assert.Equal(t, mgl32.Vec3{0, 0, 4}, ctrl.Position())
}
