package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultTransitionDuration is the length of a preset-view or focus transition in seconds.
const DefaultTransitionDuration float32 = 0.5

// focusDistance is how far in front of a focused point the camera stops.
const focusDistance float32 = 3

// ViewAnimator tweens a controller's position and target together. Only one transition runs at a
// time; starting a new one replaces the running one from the controller's current state.
type ViewAnimator interface {
	// AnimateTo starts a transition to the given position and target.
	//
	// Parameters:
	//   - position: final camera position
	//   - target: final look-at point
	//   - duration: transition length in seconds; non-positive snaps immediately
	AnimateTo(position, target mgl32.Vec3, duration float32)

	// FocusOn starts a transition that looks at point from a fixed distance along the current
	// viewing direction.
	//
	// Parameters:
	//   - point: the world-space point to focus
	FocusOn(point mgl32.Vec3)

	// Update advances the running transition.
	//
	// Parameters:
	//   - dt: seconds since the previous update
	//
	// Returns:
	//   - bool: true if the controller was moved
	Update(dt float32) bool

	// Active reports whether a transition is running.
	Active() bool

	// Stop ends the running transition where it is.
	Stop()
}

type tween struct {
	fromPosition, toPosition mgl32.Vec3
	fromTarget, toTarget     mgl32.Vec3
	duration                 float32
	elapsed                  float32
}

type viewAnimatorImpl struct {
	mu         *sync.Mutex
	controller CameraController
	current    *tween
}

var _ ViewAnimator = &viewAnimatorImpl{}

// NewViewAnimator creates a ViewAnimator driving the given controller.
//
// Parameters:
//   - controller: the controller whose position and target are tweened
//
// Returns:
//   - ViewAnimator: the new animator
func NewViewAnimator(controller CameraController) ViewAnimator {
	return &viewAnimatorImpl{
		mu:         &sync.Mutex{},
		controller: controller,
	}
}

func (a *viewAnimatorImpl) AnimateTo(position, target mgl32.Vec3, duration float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if duration <= 0 {
		a.current = nil
		a.controller.Place(position, target)
		return
	}
	a.current = &tween{
		fromPosition: a.controller.Position(),
		toPosition:   position,
		fromTarget:   a.controller.Target(),
		toTarget:     target,
		duration:     duration,
	}
}

func (a *viewAnimatorImpl) FocusOn(point mgl32.Vec3) {
	position := FocusPosition(a.controller.Position(), point)
	a.AnimateTo(position, point, DefaultTransitionDuration)
}

func (a *viewAnimatorImpl) Update(dt float32) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := a.current
	if t == nil {
		return false
	}
	t.elapsed += dt
	progress := common.Clamp(t.elapsed/t.duration, 0, 1)
	e := EaseInOutCubic(progress)

	a.controller.Place(
		common.Lerp3(t.fromPosition, t.toPosition, e),
		common.Lerp3(t.fromTarget, t.toTarget, e),
	)
	if progress >= 1 {
		a.current = nil
	}
	return true
}

func (a *viewAnimatorImpl) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

func (a *viewAnimatorImpl) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = nil
}

// FocusPosition returns the camera position for focusing point: a fixed distance back from point
// toward the camera. When the camera already sits on point, it backs off along +Z.
//
// Parameters:
//   - camera: current camera position
//   - point: the point to focus
//
// Returns:
//   - mgl32.Vec3: the new camera position
func FocusPosition(camera, point mgl32.Vec3) mgl32.Vec3 {
	dir := point.Sub(camera)
	if dir.Len() < common.Epsilon {
		dir = mgl32.Vec3{0, 0, -1}
	}
	return point.Sub(dir.Normalize().Mul(focusDistance))
}

// EaseInOutCubic is the cubic in-out ease ("power2.inOut"): slow start, fast middle, slow end.
//
// Parameters:
//   - t: progress in [0, 1]
//
// Returns:
//   - float32: eased progress in [0, 1]
func EaseInOutCubic(t float32) float32 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
