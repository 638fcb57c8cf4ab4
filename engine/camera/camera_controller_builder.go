package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the initial camera position. The spherical coordinates are derived from it
// and the target once all options are applied.
//
// Parameters:
//   - position: world-space camera position
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(position mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = position
	}
}

// WithTarget sets the look-at/pivot point.
//
// Parameters:
//   - target: world-space target
//
// Returns:
//   - CameraControllerOption: functional option to set the target position
func WithTarget(target mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = target
	}
}

// WithRadiusBounds sets the minimum and maximum orbit radius.
//
// Parameters:
//   - min: minimum zoom distance
//   - max: maximum zoom distance
//
// Returns:
//   - CameraControllerOption: functional option to set radius bounds
func WithRadiusBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius = min
		cc.maxRadius = max
	}
}

// WithElevationBounds sets the minimum and maximum elevation angles.
//
// Parameters:
//   - min: minimum vertical angle in radians
//   - max: maximum vertical angle in radians
//
// Returns:
//   - CameraControllerOption: functional option to set elevation bounds
func WithElevationBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minElevation = min
		cc.maxElevation = max
	}
}

// WithDamping enables inertia on rotate, pan and dolly input.
//
// Parameters:
//   - enabled: true to decay deltas over several updates
//   - factor: fraction of a pending delta applied per 60 Hz frame
//
// Returns:
//   - CameraControllerOption: functional option to configure damping
func WithDamping(enabled bool, factor float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.enableDamping = enabled
		cc.dampingFactor = factor
	}
}

// WithRotateSpeed sets the rotation speed multiplier.
//
// Parameters:
//   - speed: multiplier for rotate input
//
// Returns:
//   - CameraControllerOption: functional option to set rotate speed
func WithRotateSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.rotateSpeed = speed
	}
}

// WithZoomSpeed sets the zoom speed multiplier.
//
// Parameters:
//   - speed: multiplier for zoom input
//
// Returns:
//   - CameraControllerOption: functional option to set zoom speed
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}

// WithPanSpeed sets the planar pan speed multiplier.
//
// Parameters:
//   - speed: multiplier for pan input
//
// Returns:
//   - CameraControllerOption: functional option to set pan speed
func WithPanSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.panSpeed = speed
	}
}

// WithScreenSpacePanning makes vertical pans follow the camera's up axis instead of the ground plane.
//
// Parameters:
//   - enabled: true for screen-space panning
//
// Returns:
//   - CameraControllerOption: functional option to set the pan mode
func WithScreenSpacePanning(enabled bool) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.screenSpacePanning = enabled
	}
}
