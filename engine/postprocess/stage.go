package postprocess

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// OrderClass fixes where a stage runs in the chain. Stages run in ascending class order.
type OrderClass int

const (
	ClassGeometry OrderClass = iota
	ClassAmbientOcclusion
	ClassOutline
	ClassAntialias
	ClassColorGrade
	ClassGamma
	ClassOutput
)

// String returns the class name used in logs.
func (c OrderClass) String() string {
	switch c {
	case ClassGeometry:
		return "geometry"
	case ClassAmbientOcclusion:
		return "ambient-occlusion"
	case ClassOutline:
		return "outline"
	case ClassAntialias:
		return "antialias"
	case ClassColorGrade:
		return "color-grade"
	case ClassGamma:
		return "gamma"
	case ClassOutput:
		return "output"
	default:
		return "unknown"
	}
}

// FrameContext is what a stage needs to render one frame.
type FrameContext struct {
	Renderer renderer.Renderer
	View     renderer.SceneView
	Delta    time.Duration
	Elapsed  time.Duration
	Frame    uint64
}

// Stage is one pass of the post-processing chain.
type Stage interface {
	// Name returns the stage name.
	Name() string

	// Class returns the stage's order class.
	Class() OrderClass

	// Enabled reports whether the stage runs.
	Enabled() bool

	// SetEnabled turns the stage on or off.
	//
	// Parameters:
	//   - enabled: true to run the stage
	SetEnabled(enabled bool)

	// SizeSensitive reports whether the stage must be told about drawing buffer size changes.
	SizeSensitive() bool

	// Resize reallocates size-dependent state for a new logical size.
	//
	// Parameters:
	//   - width: the logical width
	//   - height: the logical height
	//   - pixelRatio: the device pixel ratio
	//
	// Returns:
	//   - error: error if a target cannot be reallocated
	Resize(width, height int, pixelRatio float32) error

	// Render runs the stage. in holds the previous stage's result; out is where the stage writes,
	// nil when the stage is the last one and writes to the screen.
	//
	// Parameters:
	//   - ctx: the frame context
	//   - in: the read buffer
	//   - out: the write buffer, or nil for the screen
	//
	// Returns:
	//   - bool: true if the read and write buffers must swap afterwards
	//   - error: error if a pass cannot be encoded
	Render(ctx *FrameContext, in, out renderer.RenderTarget) (bool, error)

	// Dispose releases the stage's GPU resources. Calling it again is a no-op.
	Dispose()

	// Disposed reports whether Dispose has been called.
	Disposed() bool
}

// stageBase carries the state every stage shares. Stages embed it and override what differs.
type stageBase struct {
	mu *sync.Mutex

	name     string
	class    OrderClass
	enabled  bool
	disposed bool

	// targets are owned by the stage and released on Dispose
	targets []renderer.RenderTarget
}

func newStageBase(name string, class OrderClass) *stageBase {
	return &stageBase{
		mu:      &sync.Mutex{},
		name:    name,
		class:   class,
		enabled: true,
	}
}

func (s *stageBase) Name() string {
	return s.name
}

func (s *stageBase) Class() OrderClass {
	return s.class
}

func (s *stageBase) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *stageBase) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

func (s *stageBase) SizeSensitive() bool {
	return false
}

func (s *stageBase) Resize(width, height int, pixelRatio float32) error {
	return nil
}

func (s *stageBase) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	for _, t := range s.targets {
		if !t.Released() {
			t.Release()
		}
	}
}

func (s *stageBase) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// resizeTargets resizes every owned target to the drawing buffer size.
func (s *stageBase) resizeTargets(width, height int, pixelRatio float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return nil
	}
	w, h := renderer.ScaledSize(width, height, pixelRatio)
	for _, t := range s.targets {
		if err := t.Resize(w, h); err != nil {
			return err
		}
	}
	return nil
}

// ownTarget allocates a drawing-buffer-sized target the stage releases on Dispose.
func (s *stageBase) ownTarget(r renderer.Renderer, label string, width, height int, pixelRatio float32) (renderer.RenderTarget, error) {
	w, h := renderer.ScaledSize(width, height, pixelRatio)
	t, err := r.CreateRenderTarget(label, w, h)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.targets = append(s.targets, t)
	s.mu.Unlock()
	return t, nil
}
