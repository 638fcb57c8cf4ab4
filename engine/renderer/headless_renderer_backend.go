package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
	"github.com/go-gl/mathgl/mgl32"
)

// ScreenLabel is the Op target name used for the screen.
const ScreenLabel = "screen"

// ErrNoFrame is returned when a pass is recorded outside BeginFrame/EndFrame.
var ErrNoFrame = errors.New("no frame in progress")

// OpKind identifies a recorded backend call.
type OpKind int

const (
	OpConfigureSurface OpKind = iota
	OpBeginFrame
	OpDrawScene
	OpRunEffect
	OpEndFrame
	OpPresent
	OpUploadEnvironment
)

// String returns the op name used in test failures.
func (k OpKind) String() string {
	switch k {
	case OpConfigureSurface:
		return "configure-surface"
	case OpBeginFrame:
		return "begin-frame"
	case OpDrawScene:
		return "draw-scene"
	case OpRunEffect:
		return "run-effect"
	case OpEndFrame:
		return "end-frame"
	case OpPresent:
		return "present"
	case OpUploadEnvironment:
		return "upload-environment"
	default:
		return "unknown"
	}
}

// Op is one recorded backend call.
type Op struct {
	Kind OpKind

	// Target is the label of the written target, ScreenLabel for the screen.
	Target string
	// Input is the label of the read target for OpRunEffect.
	Input string

	Effect    EffectPass
	Drawables int
	Jitter    mgl32.Vec2

	Width  int
	Height int

	// Environment is the uploaded map's name, empty when cleared.
	Environment string
}

// HeadlessBackend is a RendererBackend that records calls instead of drawing. It enforces the same
// frame bracketing as the GPU backend so ordering bugs show up in tests.
type HeadlessBackend struct {
	mu *sync.Mutex

	ops      []Op
	targets  []*headlessTarget
	inFrame  bool
	width    int
	height   int
	mode     PresentMode
	released bool
}

var _ RendererBackend = &HeadlessBackend{}

// NewHeadlessBackend creates an empty recording backend.
//
// Returns:
//   - *HeadlessBackend: the backend
func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{mu: &sync.Mutex{}}
}

func (b *HeadlessBackend) record(op Op) {
	b.ops = append(b.ops, op)
}

func (b *HeadlessBackend) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
	b.record(Op{Kind: OpConfigureSurface, Target: ScreenLabel, Width: width, Height: height})
}

func (b *HeadlessBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = mode
}

func (b *HeadlessBackend) CreateRenderTarget(label string, width, height int) (RenderTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil, ErrReleased
	}
	t := &headlessTarget{mu: &sync.Mutex{}, label: label, width: width, height: height}
	b.targets = append(b.targets, t)
	return t, nil
}

func (b *HeadlessBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		return errors.New("previous frame not yet ended")
	}
	b.inFrame = true
	b.record(Op{Kind: OpBeginFrame, Target: ScreenLabel, Width: b.width, Height: b.height})
	return nil
}

func (b *HeadlessBackend) DrawScene(target RenderTarget, view SceneView) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return ErrNoFrame
	}
	label, w, h, err := b.resolve(target)
	if err != nil {
		return err
	}
	b.record(Op{
		Kind:      OpDrawScene,
		Target:    label,
		Drawables: len(view.Drawables),
		Jitter:    view.Jitter,
		Width:     w,
		Height:    h,
	})
	return nil
}

func (b *HeadlessBackend) RunEffect(effect EffectPass, in, out RenderTarget) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return ErrNoFrame
	}
	if in == nil {
		return fmt.Errorf("effect %q has no input", effect.Name)
	}
	input, _, _, err := b.resolve(in)
	if err != nil {
		return err
	}
	label, w, h, err := b.resolve(out)
	if err != nil {
		return err
	}
	b.record(Op{Kind: OpRunEffect, Target: label, Input: input, Effect: effect, Width: w, Height: h})
	return nil
}

func (b *HeadlessBackend) resolve(t RenderTarget) (string, int, int, error) {
	if t == nil {
		return ScreenLabel, b.width, b.height, nil
	}
	if t.Released() {
		return "", 0, 0, fmt.Errorf("render target %q was released", t.Label())
	}
	return t.Label(), t.Width(), t.Height(), nil
}

func (b *HeadlessBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return
	}
	b.inFrame = false
	b.record(Op{Kind: OpEndFrame, Target: ScreenLabel})
}

func (b *HeadlessBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Op{Kind: OpPresent, Target: ScreenLabel})
}

func (b *HeadlessBackend) UploadEnvironment(m *environment.Map) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	op := Op{Kind: OpUploadEnvironment}
	if m != nil {
		if m.Released() {
			return fmt.Errorf("environment map %q was released", m.Name())
		}
		op.Environment = m.Name()
		op.Width, op.Height = m.Width(), m.Height()
	}
	b.record(op)
	return nil
}

func (b *HeadlessBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = true
}

// Ops returns a copy of the recorded calls.
func (b *HeadlessBackend) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Op, len(b.ops))
	copy(out, b.ops)
	return out
}

// OpsOfKind returns the recorded calls of one kind, in order.
//
// Parameters:
//   - kind: the op kind to filter on
//
// Returns:
//   - []Op: the matching calls
func (b *HeadlessBackend) OpsOfKind(kind OpKind) []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Op
	for _, op := range b.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Reset forgets the recorded calls. Targets are kept.
func (b *HeadlessBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = nil
}

// Targets returns every target the backend has created, released or not.
func (b *HeadlessBackend) Targets() []RenderTarget {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RenderTarget, len(b.targets))
	for i, t := range b.targets {
		out[i] = t
	}
	return out
}

// ReleaseCount returns how many times Release was called on the target with the given label,
// summed over every target created with that label.
//
// Parameters:
//   - label: the target label
//
// Returns:
//   - int: the number of Release calls
func (b *HeadlessBackend) ReleaseCount(label string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, t := range b.targets {
		if t.label == label {
			n += t.releaseCalls()
		}
	}
	return n
}

// Released reports whether the backend was released.
func (b *HeadlessBackend) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// PresentMode returns the last present mode set.
func (b *HeadlessBackend) PresentMode() PresentMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// headlessTarget is a RenderTarget with no storage.
type headlessTarget struct {
	mu *sync.Mutex

	label    string
	width    int
	height   int
	released bool
	releases int
}

var _ RenderTarget = &headlessTarget{}

func (t *headlessTarget) Label() string { return t.label }

func (t *headlessTarget) Width() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width
}

func (t *headlessTarget) Height() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.height
}

func (t *headlessTarget) Resize(width, height int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return fmt.Errorf("render target %q was released", t.label)
	}
	t.width, t.height = max(width, 1), max(height, 1)
	return nil
}

func (t *headlessTarget) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.releases++
	t.released = true
}

func (t *headlessTarget) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

func (t *headlessTarget) releaseCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.releases
}
