package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrReleased is returned by renderer operations after Release.
var ErrReleased = errors.New("renderer released")

// Surface is the window side of the renderer: the descriptor the backend creates its swapchain
// from, and the logical size of the drawable area.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	log         logger.Logger

	width      int
	height     int
	pixelRatio float32
	released   bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

// Renderer defines the interface for the rendering system.
//
// The Renderer tracks the logical surface size and the device pixel ratio, and forwards drawing
// buffer sizes to a pluggable backend. Scene and effect passes are recorded between BeginFrame
// and EndFrame.
type Renderer interface {
	// Size returns the logical surface size.
	//
	// Returns:
	//   - int: the width
	//   - int: the height
	Size() (int, int)

	// PixelRatio returns the device pixel ratio.
	//
	// Returns:
	//   - float32: the ratio of drawing buffer pixels to logical pixels
	PixelRatio() float32

	// SetPixelRatio sets the device pixel ratio and reconfigures the surface. Values <= 0 become 1.
	//
	// Parameters:
	//   - ratio: the new pixel ratio
	SetPixelRatio(ratio float32)

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new logical width of the surface
	//   - height: the new logical height of the surface
	Resize(width, height int)

	// CreateRenderTarget allocates an offscreen color target. The size is in drawing buffer pixels.
	//
	// Parameters:
	//   - label: a debug label
	//   - width: the target width in pixels
	//   - height: the target height in pixels
	//
	// Returns:
	//   - RenderTarget: the new target
	//   - error: error if allocation fails or the renderer was released
	CreateRenderTarget(label string, width, height int) (RenderTarget, error)

	// BeginFrame acquires the swapchain texture and opens the frame.
	// Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawScene encodes a geometry pass into target. A nil target draws to the screen.
	//
	// Parameters:
	//   - target: the color target
	//   - view: the captured camera, drawables and lights
	//
	// Returns:
	//   - error: error if the pass cannot be encoded
	DrawScene(target RenderTarget, view SceneView) error

	// RunEffect encodes a fullscreen effect pass from in to out. A nil out writes to the screen.
	//
	// Parameters:
	//   - effect: the pass description
	//   - in: the input target
	//   - out: the output target
	//
	// Returns:
	//   - error: error if the pass cannot be encoded
	RunEffect(effect EffectPass, in, out RenderTarget) error

	// EndFrame submits the frame's commands and presents the surface.
	EndFrame()

	// UploadEnvironment makes m the environment texture used by scene passes. A nil map clears it.
	//
	// Parameters:
	//   - m: the environment map
	//
	// Returns:
	//   - error: error if the upload fails
	UploadEnvironment(m *environment.Map) error

	// SetPresentMode sets the surface present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Release frees the backend. Calling it again is a no-op.
	Release()

	// Released reports whether Release has been called.
	Released() bool

	// BackendType returns the backend the renderer was created with.
	BackendType() RendererBackendType

	// Backend returns the backend, for callers that need backend-specific access.
	Backend() RendererBackend
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer on the chosen backend and configures its surface.
// The headless backend ignores surface, which may be nil; its size comes from WithSize.
//
// Parameters:
//   - backendType: the backend implementation
//   - surface: the window to present to
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the configured renderer
//   - error: error if the backend cannot be created
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		log:         logger.Nop(),
		width:       1,
		height:      1,
		pixelRatio:  1,
	}
	if surface != nil {
		r.width, r.height = surface.Width(), surface.Height()
	}

	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeHeadless:
		r.backend = NewHeadlessBackend()
	case BackendTypeWGPU:
		if surface == nil {
			return nil, errors.New("wgpu backend requires a surface")
		}
		b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create wgpu backend: %w", err)
		}
		r.backend = b
	default:
		return nil, fmt.Errorf("unknown renderer backend %d", backendType)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	w, h := ScaledSize(r.width, r.height, r.pixelRatio)
	r.backend.ConfigureSurface(w, h)
	r.log.Debugf("renderer ready: backend=%s size=%dx%d pixelRatio=%.2f", backendType, r.width, r.height, r.pixelRatio)
	return r, nil
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) PixelRatio() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pixelRatio
}

func (r *renderer) SetPixelRatio(ratio float32) {
	if ratio <= 0 {
		ratio = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released || ratio == r.pixelRatio {
		return
	}
	r.pixelRatio = ratio
	r.backend.ConfigureSurface(ScaledSize(r.width, r.height, r.pixelRatio))
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.width, r.height = max(width, 1), max(height, 1)
	r.backend.ConfigureSurface(ScaledSize(r.width, r.height, r.pixelRatio))
}

func (r *renderer) CreateRenderTarget(label string, width, height int) (RenderTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil, ErrReleased
	}
	return r.backend.CreateRenderTarget(label, max(width, 1), max(height, 1))
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	return r.backend.BeginFrame()
}

func (r *renderer) DrawScene(target RenderTarget, view SceneView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	return r.backend.DrawScene(target, view)
}

func (r *renderer) RunEffect(effect EffectPass, in, out RenderTarget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	return r.backend.RunEffect(effect, in, out)
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.backend.EndFrame()
	r.backend.Present()
}

func (r *renderer) UploadEnvironment(m *environment.Map) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	return r.backend.UploadEnvironment(m)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.backend.SetPresentMode(mode)
	r.backend.ConfigureSurface(ScaledSize(r.width, r.height, r.pixelRatio))
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.backend.Release()
}

func (r *renderer) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}
