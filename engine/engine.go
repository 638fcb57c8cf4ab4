package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/Carmen-Shannon/oxy-viewer/engine/viewer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
)

// idleFrame is the tick interval while the session is still loading.
const idleFrame = 10 * time.Millisecond

// engine implements the Engine interface.
// Coordinates the render goroutine with the window's message loop.
type engine struct {
	mu *sync.Mutex
	wg sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window  window.Window
	session viewer.Session
	input   *orbitInput
	log     logger.Logger

	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // frames to render before quitting; 0 = until quit
	frames           uint64
}

// Engine drives a viewer session: it ticks the session on a render goroutine and, when a window
// is attached, forwards window events to it while pumping the window's message loop on the
// calling thread.
type Engine interface {
	// Window returns the attached window, or nil for a headless engine.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Session returns the driven session.
	//
	// Returns:
	//   - viewer.Session: the session
	Session() viewer.Session

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frames returns the number of frames ticked so far.
	Frames() uint64

	// Run starts the render goroutine and blocks until the window closes, Quit is called or the
	// frame budget is spent.
	Run()

	// Quit signals the render goroutine to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine driving s.
//
// Parameters:
//   - s: the session to drive
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: error if s is nil
func NewEngine(s viewer.Session, options ...EngineBuilderOption) (Engine, error) {
	if s == nil {
		return nil, errors.New("session is required")
	}
	e := &engine{
		mu:          &sync.Mutex{},
		quitChannel: make(chan struct{}),
		session:     s,
		log:         logger.Nop(),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.bindWindow()
	}

	return e, nil
}

// bindWindow forwards window events to the session and the orbit controller.
func (e *engine) bindWindow() {
	w := e.window
	e.input = newOrbitInput(e.session.Controller(), w.Height)

	w.SetResizeCallback(func(width, height int) {
		e.session.Resize(width, height)
	})
	w.SetPixelRatioCallback(func(ratio float32) {
		e.session.SetPixelRatio(ratio)
	})
	w.SetMouseButtonCallback(e.input.press)
	w.SetMouseMoveCallback(e.input.move)
	w.SetScrollCallback(e.input.scroll)
	w.SetDoubleClickCallback(func(x, y float32) {
		if !e.session.FocusAt(x, y) {
			e.log.Debugf("double-click at (%.0f, %.0f) hit nothing", x, y)
		}
	})
	w.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			_ = w.Close()
		default:
		}
	})
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Session() viewer.Session {
	return e.session
}

func (e *engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *engine) Run() {
	e.wg.Add(1)
	go e.handleRender()

	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if err := e.session.Tick(dt); err != nil {
			if errors.Is(err, viewer.ErrDisposed) {
				e.signalQuit()
				return
			}
			e.log.Warnf("frame failed: %v", err)
		}

		if e.renderCallback != nil {
			e.renderCallback(dt)
		}

		if e.countFrame() {
			e.signalQuit()
			return
		}

		// Frame rate limiting; a session that is not rendering yet is polled at idleFrame
		limit := e.renderFrameLimit
		if e.session.State() != viewer.StateRendering {
			limit = max(limit, idleFrame)
		}
		if remaining := limit - time.Since(now); remaining > 0 {
			select {
			case <-e.quitChannel:
				return
			case <-time.After(remaining):
			}
		}
	}
}

// countFrame records a rendered frame once the session renders, and reports whether the frame
// budget is spent.
func (e *engine) countFrame() bool {
	if e.session.State() != viewer.StateRendering {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames++
	return e.maxFrames > 0 && e.frames >= e.maxFrames
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
