package framer

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultMargin scales the fitted distance so the model does not touch the viewport edges.
	DefaultMargin float32 = 1.1

	// DefaultMinRadius keeps point-sized models from collapsing the camera onto the target.
	DefaultMinRadius float32 = 0.001

	minNear    float32 = 0.1
	nearRatio  float32 = 1000
	farRatio   float32 = 1000
	minFarGap  float32 = 10
	minAspect  float32 = 0.0001
	emptyScene         = "bounding box is empty; skip centering"
)

// DefaultViewDirection is the direction from the target toward the framed camera.
var DefaultViewDirection = mgl32.Vec3{1, 1, 1}

// Result describes what a framing call did.
type Result struct {
	// Skipped is set when the scene had no measurable geometry and the camera was left alone.
	Skipped bool

	Box      common.Box3
	Center   mgl32.Vec3
	Radius   float32
	Distance float32
	Position mgl32.Vec3
	Near     float32
	Far      float32
}

// Framer fits a camera to the bounds of a subtree.
type Framer interface {
	// Frame fits cam to root along the configured view direction. The controller attached to cam
	// receives the new target and position; the camera receives the new clip planes.
	//
	// Parameters:
	//   - root: the subtree to fit
	//   - cam: the camera to move
	//
	// Returns:
	//   - Result: the framing outcome
	Frame(root *scene.Node, cam camera.Camera) Result

	// FrameFrom is Frame with a per-call view direction. A zero direction falls back to the
	// configured one.
	//
	// Parameters:
	//   - root: the subtree to fit
	//   - cam: the camera to move
	//   - direction: direction from the target toward the camera
	//
	// Returns:
	//   - Result: the framing outcome
	FrameFrom(root *scene.Node, cam camera.Camera, direction mgl32.Vec3) Result

	// Margin returns the distance margin.
	Margin() float32

	// ViewDirection returns the configured view direction.
	ViewDirection() mgl32.Vec3
}

type framerImpl struct {
	mu *sync.Mutex

	margin    float32
	minRadius float32
	direction mgl32.Vec3
	log       logger.Logger
}

var _ Framer = &framerImpl{}

// NewFramer creates a Framer configured with the provided options.
//
// Parameters:
//   - options: variadic list of FramerBuilderOption functions
//
// Returns:
//   - Framer: the new framer
func NewFramer(options ...FramerBuilderOption) Framer {
	f := &framerImpl{
		mu:        &sync.Mutex{},
		margin:    DefaultMargin,
		minRadius: DefaultMinRadius,
		direction: DefaultViewDirection,
		log:       logger.Nop(),
	}
	for _, opt := range options {
		opt(f)
	}
	if f.margin <= 0 {
		f.margin = DefaultMargin
	}
	if f.minRadius <= 0 {
		f.minRadius = DefaultMinRadius
	}
	if f.direction.Len() == 0 {
		f.direction = DefaultViewDirection
	}
	return f
}

func (f *framerImpl) Margin() float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.margin
}

func (f *framerImpl) ViewDirection() mgl32.Vec3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.direction
}

func (f *framerImpl) Frame(root *scene.Node, cam camera.Camera) Result {
	return f.FrameFrom(root, cam, mgl32.Vec3{})
}

func (f *framerImpl) FrameFrom(root *scene.Node, cam camera.Camera, direction mgl32.Vec3) Result {
	f.mu.Lock()
	margin, minRadius := f.margin, f.minRadius
	if direction.Len() == 0 {
		direction = f.direction
	}
	f.mu.Unlock()

	box := scene.ComputeBounds(root)
	if box.IsEmpty() {
		f.log.Warnf(emptyScene)
		return Result{Skipped: true, Box: box}
	}

	sphere := box.BoundingSphere()
	radius := max(sphere.Radius, minRadius)
	distance := FitDistance(radius, cam.Fov(), cam.Aspect()) * margin
	near, far := ClipPlanes(distance)
	position := sphere.Center.Add(direction.Normalize().Mul(distance))

	if ctrl := cam.Controller(); ctrl != nil {
		ctrl.Place(position, sphere.Center)
	}
	cam.SetClip(near, far)
	cam.Update()

	return Result{
		Box:      box,
		Center:   sphere.Center,
		Radius:   radius,
		Distance: distance,
		Position: position,
		Near:     near,
		Far:      far,
	}
}

// FitDistance returns the camera distance at which a sphere of the given radius fills the
// narrower of the vertical and horizontal fields of view.
//
// Parameters:
//   - radius: the sphere radius
//   - fov: the vertical field of view in radians
//   - aspect: the viewport aspect ratio, clamped to a small positive minimum
//
// Returns:
//   - float32: the distance from the sphere center
func FitDistance(radius, fov, aspect float32) float32 {
	aspect = max(aspect, minAspect)
	halfV := float64(fov) / 2
	distV := float64(radius) / math.Tan(halfV)
	hfov := 2 * math.Atan(math.Tan(halfV)*float64(aspect))
	distH := float64(radius) / math.Tan(hfov/2)
	return float32(math.Max(distV, distH))
}

// ClipPlanes derives near and far planes that keep a model at the given distance in range.
//
// Parameters:
//   - distance: the camera distance from the model center
//
// Returns:
//   - near: max(0.1, distance/1000)
//   - far: max(near+10, distance*1000)
func ClipPlanes(distance float32) (near, far float32) {
	near = max(minNear, distance/nearRatio)
	far = max(near+minFarGap, distance*farRatio)
	return near, far
}
