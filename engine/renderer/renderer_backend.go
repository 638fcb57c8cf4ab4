package renderer

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeHeadless selects a backend that records every operation instead of drawing.
	// It needs no window or GPU.
	BackendTypeHeadless
)

// String returns the backend name used in logs and flags.
func (t RendererBackendType) String() string {
	if t == BackendTypeHeadless {
		return "headless"
	}
	return "wgpu"
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// RendererBackend is the GPU-facing half of the Renderer. Sizes passed to a backend are drawing
// buffer sizes, already multiplied by the pixel ratio. A nil RenderTarget means the screen.
type RendererBackend interface {
	// ConfigureSurface (re)creates the presentation surface and its depth buffer.
	//
	// Parameters:
	//   - width: the drawing buffer width in pixels
	//   - height: the drawing buffer height in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// CreateRenderTarget allocates an offscreen color target.
	//
	// Parameters:
	//   - label: a debug label
	//   - width: the target width in pixels
	//   - height: the target height in pixels
	//
	// Returns:
	//   - RenderTarget: the new target
	//   - error: error if allocation fails
	CreateRenderTarget(label string, width, height int) (RenderTarget, error)

	// BeginFrame acquires the swapchain texture and opens the frame's command encoder.
	//
	// Returns:
	//   - error: error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawScene encodes a geometry pass of the view into target.
	//
	// Parameters:
	//   - target: the color target, nil for the screen
	//   - view: the camera, drawables and lights to render
	//
	// Returns:
	//   - error: error if no frame is open or the pass cannot be encoded
	DrawScene(target RenderTarget, view SceneView) error

	// RunEffect encodes a fullscreen pass that reads in and writes out.
	//
	// Parameters:
	//   - effect: the pass description
	//   - in: the input target
	//   - out: the output target, nil for the screen
	//
	// Returns:
	//   - error: error if no frame is open or the pass cannot be encoded
	RunEffect(effect EffectPass, in, out RenderTarget) error

	// EndFrame submits the frame's commands.
	EndFrame()

	// Present shows the frame and releases the swapchain texture.
	Present()

	// UploadEnvironment makes m the environment texture used by scene passes. A nil map clears it.
	//
	// Parameters:
	//   - m: the environment map
	//
	// Returns:
	//   - error: error if the upload fails
	UploadEnvironment(m *environment.Map) error

	// Release frees every GPU object the backend owns.
	Release()
}
