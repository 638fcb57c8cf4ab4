package postprocess

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// ErrDisposed is returned when a disposed graph is asked to render or resize.
var ErrDisposed = errors.New("pass graph disposed")

// PassGraph is a built post-processing chain over two ping-pong targets.
type PassGraph interface {
	// Stages returns the instantiated stages in run order.
	Stages() []Stage

	// RenderStage returns the geometry pass.
	RenderStage() *RenderStage
	// SSAO returns the ambient occlusion stage, or nil if absent.
	SSAO() *SSAOStage
	// Outline returns the outline stage, or nil if absent.
	Outline() *OutlineStage
	// TAA returns the temporal antialiasing stage, or nil if absent.
	TAA() *TAAStage
	// FXAA returns the FXAA stage, or nil if absent.
	FXAA() *FXAAStage
	// SMAA returns the SMAA stage, or nil if absent.
	SMAA() *SMAAStage
	// ColorCorrection returns the color correction stage, or nil if absent.
	ColorCorrection() *ColorCorrectionStage
	// Gamma returns the gamma stage, or nil if absent.
	Gamma() *GammaStage
	// Output returns the terminal stage.
	Output() *OutputStage

	// Targets returns the read and write buffers as of the start of the next frame.
	Targets() (renderer.RenderTarget, renderer.RenderTarget)

	// Render runs every enabled stage for one frame. The last enabled stage writes to the screen.
	//
	// Parameters:
	//   - frame: the frame context; its Renderer is replaced by the graph's
	//
	// Returns:
	//   - error: the first stage or frame error
	Render(frame FrameContext) error

	// Resize resizes the ping-pong targets and every size-sensitive stage, using the renderer's
	// current pixel ratio.
	//
	// Parameters:
	//   - width: the logical width
	//   - height: the logical height
	//
	// Returns:
	//   - error: error if a target cannot be reallocated
	Resize(width, height int) error

	// Dispose releases every stage and both targets. Calling it again is a no-op.
	Dispose()

	// Disposed reports whether Dispose has been called.
	Disposed() bool
}

type passGraph struct {
	mu  *sync.Mutex
	log logger.Logger

	r      renderer.Renderer
	stages []Stage

	render          *RenderStage
	ssao            *SSAOStage
	outline         *OutlineStage
	taa             *TAAStage
	fxaa            *FXAAStage
	smaa            *SMAAStage
	colorCorrection *ColorCorrectionStage
	gamma           *GammaStage
	output          *OutputStage

	read  renderer.RenderTarget
	write renderer.RenderTarget

	width    int
	height   int
	disposed bool
}

var _ PassGraph = &passGraph{}

// Build instantiates the enabled entries of Plan(options) in order and allocates two ping-pong
// targets at the drawing buffer size. Width, height and pixel ratio default to the renderer's
// when zero.
//
// Parameters:
//   - r: the renderer the graph draws with
//   - options: the effect selection
//   - buildOptions: variadic list of BuildOption functions
//
// Returns:
//   - PassGraph: the built graph
//   - error: error if a target cannot be allocated
func Build(r renderer.Renderer, options Options, buildOptions ...BuildOption) (PassGraph, error) {
	if r == nil {
		return nil, errors.New("pass graph needs a renderer")
	}
	g := &passGraph{
		mu:  &sync.Mutex{},
		log: logger.Nop(),
		r:   r,
	}
	for _, opt := range buildOptions {
		opt(g)
	}

	rw, rh := r.Size()
	if options.Width <= 0 || options.Height <= 0 {
		options.Width, options.Height = rw, rh
	}
	if options.PixelRatio <= 0 {
		options.PixelRatio = r.PixelRatio()
	}
	g.width, g.height = options.Width, options.Height
	w, h, pr := options.Width, options.Height, options.PixelRatio

	fail := func(err error) (PassGraph, error) {
		g.Dispose()
		return nil, err
	}

	for _, spec := range Plan(options) {
		if !spec.Enabled {
			continue
		}
		var (
			stage Stage
			err   error
		)
		switch spec.Kind {
		case KindRender:
			g.render = NewRenderStage()
			stage = g.render
		case KindSSAO:
			g.ssao, err = NewSSAOStage(r, options.SSAO, w, h, pr)
			stage = g.ssao
		case KindOutline:
			g.outline, err = NewOutlineStage(r, options.HighlightColor, w, h, pr)
			stage = g.outline
		case KindTAA:
			g.taa, err = NewTAAStage(r, options.TAASampleLevel, w, h, pr)
			stage = g.taa
		case KindFXAA:
			g.fxaa = NewFXAAStage(w, h, pr)
			stage = g.fxaa
		case KindSMAA:
			g.smaa, err = NewSMAAStage(r, w, h, pr)
			stage = g.smaa
		case KindColorCorrection:
			g.colorCorrection = NewColorCorrectionStage()
			stage = g.colorCorrection
		case KindGamma:
			g.gamma = NewGammaStage()
			stage = g.gamma
		case KindOutput:
			g.output = NewOutputStage()
			stage = g.output
		}
		if err != nil {
			return fail(fmt.Errorf("failed to create %s stage: %w", spec.Kind, err))
		}
		g.stages = append(g.stages, stage)
	}

	if g.taa != nil {
		g.render.SetJitterSource(g.taa)
	}

	bw, bh := renderer.ScaledSize(w, h, pr)
	var err error
	if g.read, err = r.CreateRenderTarget("composer-read", bw, bh); err != nil {
		return fail(fmt.Errorf("failed to create read buffer: %w", err))
	}
	if g.write, err = r.CreateRenderTarget("composer-write", bw, bh); err != nil {
		return fail(fmt.Errorf("failed to create write buffer: %w", err))
	}

	names := make([]string, len(g.stages))
	for i, s := range g.stages {
		names[i] = s.Name()
	}
	g.log.Debugf("pass graph built: %v at %dx%d", names, bw, bh)
	return g, nil
}

func (g *passGraph) Stages() []Stage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Stage(nil), g.stages...)
}

func (g *passGraph) RenderStage() *RenderStage { return g.render }
func (g *passGraph) SSAO() *SSAOStage { return g.ssao }
func (g *passGraph) Outline() *OutlineStage { return g.outline }
func (g *passGraph) TAA() *TAAStage { return g.taa }
func (g *passGraph) FXAA() *FXAAStage { return g.fxaa }
func (g *passGraph) SMAA() *SMAAStage { return g.smaa }
func (g *passGraph) ColorCorrection() *ColorCorrectionStage { return g.colorCorrection }
func (g *passGraph) Gamma() *GammaStage { return g.gamma }
func (g *passGraph) Output() *OutputStage { return g.output }

func (g *passGraph) Targets() (renderer.RenderTarget, renderer.RenderTarget) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.read, g.write
}

func (g *passGraph) Render(frame FrameContext) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disposed {
		return ErrDisposed
	}
	frame.Renderer = g.r

	if g.output != nil {
		g.output.SetEncodeSRGB(g.gamma == nil || !g.gamma.Enabled())
	}

	enabled := make([]Stage, 0, len(g.stages))
	for _, s := range g.stages {
		if s.Enabled() && !s.Disposed() {
			enabled = append(enabled, s)
		}
	}
	if len(enabled) == 0 {
		return nil
	}

	if err := g.r.BeginFrame(); err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}
	defer g.r.EndFrame()

	for i, s := range enabled {
		out := g.write
		if i == len(enabled)-1 {
			out = nil
		}
		swap, err := s.Render(&frame, g.read, out)
		if err != nil {
			return fmt.Errorf("%s stage failed: %w", s.Name(), err)
		}
		if swap {
			g.read, g.write = g.write, g.read
		}
	}
	return nil
}

func (g *passGraph) Resize(width, height int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disposed {
		return ErrDisposed
	}
	width, height = max(width, 1), max(height, 1)
	pr := g.r.PixelRatio()
	bw, bh := renderer.ScaledSize(width, height, pr)
	if err := g.read.Resize(bw, bh); err != nil {
		return err
	}
	if err := g.write.Resize(bw, bh); err != nil {
		return err
	}
	for _, s := range g.stages {
		if !s.SizeSensitive() || s.Disposed() {
			continue
		}
		if err := s.Resize(width, height, pr); err != nil {
			return fmt.Errorf("failed to resize %s stage: %w", s.Name(), err)
		}
	}
	g.width, g.height = width, height
	g.log.Debugf("pass graph resized to %dx%d (pixelRatio %.2f)", bw, bh, pr)
	return nil
}

func (g *passGraph) Dispose() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.disposed {
		return
	}
	g.disposed = true
	for _, s := range g.stages {
		if !s.Disposed() {
			s.Dispose()
		}
	}
	for _, t := range []renderer.RenderTarget{g.read, g.write} {
		if t != nil && !t.Released() {
			t.Release()
		}
	}
}

func (g *passGraph) Disposed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disposed
}
