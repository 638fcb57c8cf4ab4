package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// minDelta is the magnitude below which a decaying delta is dropped.
const minDelta = 1e-6

var worldUp = mgl32.Vec3{0, 1, 0}

// cameraControllerImpl is the single implementation of CameraController.
// Orbit input modifies spherical coordinates and recomputes position; pan input translates both
// position and target, preserving the orbit relationship.
type cameraControllerImpl struct {
	mu *sync.Mutex

	// Camera position (computed from target + spherical coords)
	position mgl32.Vec3
	target   mgl32.Vec3

	// Spherical coordinates (offset from target)
	radius    float32
	azimuth   float32 // Horizontal angle around Y axis, 0 = +Z
	elevation float32 // Vertical angle from horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	rotateSpeed        float32
	zoomSpeed          float32
	panSpeed           float32
	screenSpacePanning bool

	enableDamping bool
	dampingFactor float32

	// pending input, applied by Update
	pendingAzimuth   float32
	pendingElevation float32
	pendingPan       mgl32.Vec3
	pendingScale     float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new orbit/pan controller. Without options the camera sits at
// (0, 0, 10) looking at the origin.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:       &sync.Mutex{},
		position: mgl32.Vec3{0, 0, 10},

		minRadius:    common.Epsilon,
		maxRadius:    math.MaxFloat32,
		minElevation: -math.Pi/2 + 0.001,
		maxElevation: math.Pi/2 - 0.001,

		rotateSpeed: 1.0,
		zoomSpeed:   1.0,
		panSpeed:    1.0,

		dampingFactor: 0.05,
		pendingScale:  1,
	}

	for _, option := range options {
		option(cc)
	}
	cc.dampingFactor = common.Clamp(cc.dampingFactor, 0, 1)

	cc.deriveSpherical(cc.position)
	return cc
}

// --- internal helpers ---

// updatePosition recomputes the camera position from spherical coordinates.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))

	cc.position = cc.target.Add(mgl32.Vec3{
		cc.radius * cosElev * sinAzim,
		cc.radius * sinElev,
		cc.radius * cosElev * cosAzim,
	})
}

// deriveSpherical computes radius, azimuth and elevation from a position relative to the current
// target. The position is kept verbatim unless a bound had to be applied.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) deriveSpherical(position mgl32.Vec3) {
	offset := position.Sub(cc.target)
	r := offset.Len()
	if r < common.Epsilon {
		cc.radius = common.Clamp(r, cc.minRadius, cc.maxRadius)
		cc.updatePosition()
		return
	}

	cc.radius = r
	cc.azimuth = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
	cc.elevation = float32(math.Asin(float64(common.Clamp(offset.Y()/r, -1, 1))))

	clamped := false
	if c := common.Clamp(cc.radius, cc.minRadius, cc.maxRadius); c != cc.radius {
		cc.radius, clamped = c, true
	}
	if c := common.Clamp(cc.elevation, cc.minElevation, cc.maxElevation); c != cc.elevation {
		cc.elevation, clamped = c, true
	}
	if clamped {
		cc.updatePosition()
		return
	}
	cc.position = position
}

// localAxes computes the camera's right, up and ground-plane forward axes, consistent with the
// view matrix built by common.LookAt.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) localAxes() (right, up, forward mgl32.Vec3) {
	back := cc.position.Sub(cc.target)
	if back.Len() < common.Epsilon {
		back = mgl32.Vec3{0, 0, 1}
	}
	back = back.Normalize()

	right = worldUp.Cross(back)
	if right.Len() < common.Epsilon {
		// looking straight up or down; fall back to the azimuth
		right = mgl32.Vec3{
			float32(math.Cos(float64(cc.azimuth))),
			0,
			-float32(math.Sin(float64(cc.azimuth))),
		}
	}
	right = right.Normalize()
	up = back.Cross(right)
	forward = worldUp.Cross(right)
	return right, up, forward
}

func (cc *cameraControllerImpl) clearPending() {
	cc.pendingAzimuth = 0
	cc.pendingElevation = 0
	cc.pendingPan = mgl32.Vec3{}
	cc.pendingScale = 1
}

// --- CameraController shared methods ---

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(position mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.deriveSpherical(position)
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Place(position, target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.clearPending()
	cc.target = target
	cc.deriveSpherical(position)
}

func (cc *cameraControllerImpl) Update(dt float32) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	applied := float32(1)
	if cc.enableDamping {
		frames := dt * 60
		if frames <= 0 {
			frames = 1
		}
		applied = 1 - float32(math.Pow(float64(1-cc.dampingFactor), float64(frames)))
	}

	changed := false
	if cc.pendingAzimuth != 0 || cc.pendingElevation != 0 {
		cc.azimuth += cc.pendingAzimuth * applied
		cc.elevation = common.Clamp(cc.elevation+cc.pendingElevation*applied, cc.minElevation, cc.maxElevation)
		changed = true
	}
	if cc.pendingPan != (mgl32.Vec3{}) {
		cc.target = cc.target.Add(cc.pendingPan.Mul(applied))
		changed = true
	}
	if cc.pendingScale != 1 {
		cc.radius = common.Clamp(cc.radius*cc.pendingScale, cc.minRadius, cc.maxRadius)
		cc.pendingScale = 1
		changed = true
	}
	if !changed {
		return false
	}
	cc.updatePosition()

	remaining := 1 - applied
	cc.pendingAzimuth *= remaining
	cc.pendingElevation *= remaining
	cc.pendingPan = cc.pendingPan.Mul(remaining)
	if abs32(cc.pendingAzimuth) < minDelta {
		cc.pendingAzimuth = 0
	}
	if abs32(cc.pendingElevation) < minDelta {
		cc.pendingElevation = 0
	}
	if cc.pendingPan.Len() < minDelta {
		cc.pendingPan = mgl32.Vec3{}
	}
	return true
}

func (cc *cameraControllerImpl) DampingEnabled() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.enableDamping
}

func (cc *cameraControllerImpl) DampingFactor() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.dampingFactor
}

func (cc *cameraControllerImpl) SetDamping(enabled bool, factor float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.enableDamping = enabled
	cc.dampingFactor = common.Clamp(factor, 0, 1)
}

// --- orbitCameraController implementation ---

func (cc *cameraControllerImpl) Rotate(dAzimuth, dElevation float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pendingAzimuth += dAzimuth * cc.rotateSpeed
	cc.pendingElevation += dElevation * cc.rotateSpeed
}

func (cc *cameraControllerImpl) Dolly(scale float32) {
	if scale <= 0 {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pendingScale *= scale
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pendingScale *= float32(math.Pow(0.95, float64(delta*cc.zoomSpeed)))
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = common.Clamp(radius, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

func (cc *cameraControllerImpl) RotateSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.rotateSpeed
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}

// --- planarCameraController implementation ---

func (cc *cameraControllerImpl) Pan(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	right, up, forward := cc.localAxes()
	vertical := forward
	if cc.screenSpacePanning {
		vertical = up
	}
	scale := cc.radius * cc.panSpeed
	cc.pendingPan = cc.pendingPan.Add(right.Mul(dx * scale)).Add(vertical.Mul(dy * scale))
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panSpeed
}

func (cc *cameraControllerImpl) ScreenSpacePanning() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.screenSpacePanning
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
