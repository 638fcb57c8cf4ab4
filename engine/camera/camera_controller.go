package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraController defines the orbit/pan controller that owns the camera's position and look-at
// target. The target is the single shared value the framer, the view animator and the render loop
// all read and write through this interface.
//
// Input methods (Rotate, Pan, Dolly, Zoom) only queue deltas; Update applies them, decaying them
// over several ticks when damping is enabled. Place, SetTarget and SetPosition apply immediately.
type CameraController interface {
	orbitCameraController
	planarCameraController

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target position
	Target() mgl32.Vec3

	// SetTarget moves the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target mgl32.Vec3)

	// SetPosition moves the camera, keeping the target, and re-derives the spherical coordinates.
	//
	// Parameters:
	//   - position: world-space coordinates
	SetPosition(position mgl32.Vec3)

	// Place sets target and position together, re-derives the spherical coordinates and discards
	// any pending input deltas.
	//
	// Parameters:
	//   - position: world-space camera position
	//   - target: world-space look-at point
	Place(position, target mgl32.Vec3)

	// Update applies pending input deltas. With damping enabled only part of each delta is applied
	// and the remainder decays by (1 - dampingFactor) per 60 Hz frame.
	//
	// Parameters:
	//   - dt: seconds since the previous update; non-positive counts as one 60 Hz frame
	//
	// Returns:
	//   - bool: true if position or target changed
	Update(dt float32) bool

	// DampingEnabled reports whether input deltas decay over several updates.
	//
	// Returns:
	//   - bool: true when damping is enabled
	DampingEnabled() bool

	// DampingFactor returns the fraction of a pending delta applied per 60 Hz frame.
	//
	// Returns:
	//   - float32: the damping factor in [0, 1]
	DampingFactor() float32

	// SetDamping enables or disables damping.
	//
	// Parameters:
	//   - enabled: true to decay deltas over several updates
	//   - factor: fraction of a delta applied per frame, clamped to [0, 1]
	SetDamping(enabled bool, factor float32)
}

// orbitCameraController defines orbit-specific control methods using spherical coordinates
// (radius, azimuth, elevation) relative to the target.
type orbitCameraController interface {
	// Rotate queues an orbit around the target.
	//
	// Parameters:
	//   - dAzimuth: horizontal angle delta in radians, scaled by RotateSpeed
	//   - dElevation: vertical angle delta in radians, scaled by RotateSpeed
	Rotate(dAzimuth, dElevation float32)

	// Dolly queues a multiplicative change of the orbit radius. Scales above 1 move away from the
	// target.
	//
	// Parameters:
	//   - scale: radius multiplier
	Dolly(scale float32)

	// Zoom queues a wheel zoom. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: wheel steps, scaled by ZoomSpeed
	Zoom(delta float32)

	// Radius returns the current orbit radius (distance from target).
	//
	// Returns:
	//   - float32: current distance from target
	Radius() float32

	// SetRadius sets the orbit radius directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// Azimuth returns the current horizontal angle around the Y axis.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// Elevation returns the current vertical angle from the horizontal plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32

	// RotateSpeed returns the rotation speed multiplier.
	RotateSpeed() float32

	// ZoomSpeed returns the zoom speed multiplier.
	ZoomSpeed() float32
}

// planarCameraController defines pan control. Panning shifts both position and target by the same
// offset, preserving the orbit relationship.
type planarCameraController interface {
	// Pan queues a translation. dx moves along the camera's right axis; dy moves along the camera's
	// up axis with screen-space panning, or along the ground-plane forward axis otherwise.
	// Both are in units of the current orbit radius, so the on-screen speed is independent of zoom.
	//
	// Parameters:
	//   - dx: horizontal pan amount, scaled by PanSpeed
	//   - dy: vertical pan amount, scaled by PanSpeed
	Pan(dx, dy float32)

	// PanSpeed returns the pan speed multiplier.
	//
	// Returns:
	//   - float32: multiplier for pan input
	PanSpeed() float32

	// ScreenSpacePanning reports whether vertical pans follow the camera's up axis.
	ScreenSpacePanning() bool
}
