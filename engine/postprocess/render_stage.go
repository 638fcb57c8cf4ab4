package postprocess

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// RenderStage is the geometry pass. It draws the scene into the read buffer so the next stage
// reads it, or straight to the screen when nothing follows. While a TAA stage is attached and
// enabled, the scene is drawn with that stage's sub-pixel jitter for the frame.
type RenderStage struct {
	*stageBase

	taa *TAAStage
}

var _ Stage = &RenderStage{}

// NewRenderStage creates the geometry pass.
func NewRenderStage() *RenderStage {
	return &RenderStage{stageBase: newStageBase("render", ClassGeometry)}
}

// SetJitterSource attaches the TAA stage whose jitter pattern the geometry pass follows. nil
// detaches it.
//
// Parameters:
//   - taa: the TAA stage, or nil
func (s *RenderStage) SetJitterSource(taa *TAAStage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taa = taa
}

// Jittered reports whether the next draw is offset by a TAA jitter.
func (s *RenderStage) Jittered() bool {
	s.mu.Lock()
	taa := s.taa
	s.mu.Unlock()
	return taa != nil && taa.Enabled() && !taa.Disposed()
}

func (s *RenderStage) Render(ctx *FrameContext, in, out renderer.RenderTarget) (bool, error) {
	target := in
	if out == nil {
		target = nil
	}
	view := ctx.View
	if s.Jittered() {
		view = view.WithJitter(s.taa.Jitter(ctx.Frame))
	}
	return false, ctx.Renderer.DrawScene(target, view)
}
