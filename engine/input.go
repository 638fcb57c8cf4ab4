package engine

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
)

// orbitInput turns pointer drags and wheel steps into controller deltas: the left button orbits,
// the right and middle buttons pan, the wheel dollies. Deltas are normalized by the viewport
// height so a full-height drag is one full turn regardless of window size.
type orbitInput struct {
	mu *sync.Mutex

	ctrl   camera.CameraController
	height func() int

	button   int
	dragging bool
	lastX    float32
	lastY    float32
}

func newOrbitInput(ctrl camera.CameraController, height func() int) *orbitInput {
	return &orbitInput{
		mu:     &sync.Mutex{},
		ctrl:   ctrl,
		height: height,
	}
}

// press starts or ends a drag. Only the first pressed button drives a drag.
func (in *orbitInput) press(button int, pressed bool, x, y float32) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if pressed {
		if in.dragging {
			return
		}
		in.button, in.dragging = button, true
		in.lastX, in.lastY = x, y
		return
	}
	if in.dragging && button == in.button {
		in.dragging = false
	}
}

// move applies the cursor delta since the previous event to the active drag.
func (in *orbitInput) move(x, y float32) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.dragging {
		return
	}
	h := float32(max(in.height(), 1))
	dx, dy := (x-in.lastX)/h, (y-in.lastY)/h
	in.lastX, in.lastY = x, y

	switch in.button {
	case common.MouseButtonLeft:
		in.ctrl.Rotate(-2*math.Pi*dx, 2*math.Pi*dy)
	case common.MouseButtonRight, common.MouseButtonMiddle:
		in.ctrl.Pan(-dx, dy)
	}
}

// scroll dollies toward the target for positive deltas.
func (in *orbitInput) scroll(delta float32) {
	in.ctrl.Zoom(delta)
}
