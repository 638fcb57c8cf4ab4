package window

import (
	"fmt"
	"runtime"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and the viewer's input events.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the logical window size changes.
	//
	// Parameters:
	//   - callback: function receiving the new logical width and height
	SetResizeCallback(callback func(width, height int))

	// SetPixelRatioCallback sets the function called when the ratio of framebuffer pixels to
	// logical pixels changes, for example when the window moves to a high-DPI monitor.
	//
	// Parameters:
	//   - callback: function receiving the new ratio
	SetPixelRatioCallback(callback func(ratio float32))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseButtonCallback sets the callback for mouse button presses and releases.
	//
	// Parameters:
	//   - callback: function receiving the button (see common.MouseButton*), whether it was
	//     pressed, and the cursor position
	SetMouseButtonCallback(callback func(button int, pressed bool, x, y float32))

	// SetMouseMoveCallback sets the callback for cursor movement.
	//
	// Parameters:
	//   - callback: function receiving the cursor position
	SetMouseMoveCallback(callback func(x, y float32))

	// SetDoubleClickCallback sets the callback for a left-button double click.
	//
	// Parameters:
	//   - callback: function receiving the cursor position of the second click
	SetDoubleClickCallback(callback func(x, y float32))

	// SetDropCallback sets the callback for files dropped onto the window.
	//
	// Parameters:
	//   - callback: function receiving the dropped paths
	SetDropCallback(callback func(paths []string))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the logical client area width.
	Width() int

	// Height returns the logical client area height.
	Height() int

	// PixelRatio returns the ratio of framebuffer pixels to logical pixels.
	PixelRatio() float32
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	minWidth  int
	minHeight int

	// width and height are the logical client size.
	width  int
	height int

	pixelRatio float32

	doubleClickInterval time.Duration
	doubleClickSlop     float32

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate      func()
	onResize      func(width, height int)
	onPixelRatio  func(ratio float32)
	onScroll      func(delta float32)
	onKeyDown     func(keyCode uint32)
	onKeyUp       func(keyCode uint32)
	onMouseButton func(button int, pressed bool, x, y float32)
	onMouseMove   func(x, y float32)
	onDoubleClick func(x, y float32)
	onDrop        func(paths []string)

	clicks clickTracker
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window. Applies default values first, then each option in
// order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:               "Oxy Viewer",
		minWidth:            320,
		minHeight:           200,
		width:               1600,
		height:              900,
		pixelRatio:          1,
		doubleClickInterval: 300 * time.Millisecond,
		doubleClickSlop:     4,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetPixelRatioCallback(callback func(ratio float32)) {
	w.onPixelRatio = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMouseButtonCallback(callback func(button int, pressed bool, x, y float32)) {
	w.onMouseButton = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y float32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SetDoubleClickCallback(callback func(x, y float32)) {
	w.onDoubleClick = callback
}

func (w *engineWindow) SetDropCallback(callback func(paths []string)) {
	w.onDrop = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) PixelRatio() float32 {
	return w.pixelRatio
}

// setSize records a logical size change and notifies the resize callback.
func (w *engineWindow) setSize(width, height int) {
	if width <= 0 || height <= 0 {
		// minimized
		return
	}
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

// setFramebufferSize derives the pixel ratio from the framebuffer size and notifies the pixel
// ratio callback when it changed.
func (w *engineWindow) setFramebufferSize(fbWidth, fbHeight int) {
	if fbWidth <= 0 || w.width <= 0 {
		return
	}
	ratio := float32(fbWidth) / float32(w.width)
	if ratio == w.pixelRatio {
		return
	}
	w.pixelRatio = ratio
	if w.onPixelRatio != nil {
		w.onPixelRatio(ratio)
	}
}

// mouseButton dispatches a button event and turns two close left presses into a double click.
func (w *engineWindow) mouseButton(button int, pressed bool, x, y float32, at time.Time) {
	if w.onMouseButton != nil {
		w.onMouseButton(button, pressed, x, y)
	}
	if button != 0 || !pressed {
		return
	}
	if w.clicks.press(x, y, at, w.doubleClickInterval, w.doubleClickSlop) && w.onDoubleClick != nil {
		w.onDoubleClick(x, y)
	}
}

// clickTracker remembers the last left press to detect double clicks.
type clickTracker struct {
	at   time.Time
	x, y float32
}

// press records a press and reports whether it completes a double click. A completed double
// click resets the tracker so a third press starts over.
func (c *clickTracker) press(x, y float32, at time.Time, interval time.Duration, slop float32) bool {
	double := !c.at.IsZero() &&
		at.Sub(c.at) <= interval &&
		abs32(x-c.x) <= slop && abs32(y-c.y) <= slop
	if double {
		*c = clickTracker{}
		return true
	}
	*c = clickTracker{at: at, x: x, y: y}
	return false
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
