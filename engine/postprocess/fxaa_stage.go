package postprocess

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// FXAAStage is fast approximate antialiasing.
type FXAAStage struct {
	*stageBase

	invResolution [2]float32
}

var _ Stage = &FXAAStage{}

// NewFXAAStage creates the stage sized to the drawing buffer.
//
// Parameters:
//   - width: the logical width
//   - height: the logical height
//   - pixelRatio: the device pixel ratio
//
// Returns:
//   - *FXAAStage: the stage
func NewFXAAStage(width, height int, pixelRatio float32) *FXAAStage {
	s := &FXAAStage{stageBase: newStageBase("fxaa", ClassAntialias)}
	_ = s.Resize(width, height, pixelRatio)
	return s
}

// InvResolution returns the resolution uniform: one over the drawing buffer size.
func (s *FXAAStage) InvResolution() [2]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invResolution
}

func (s *FXAAStage) SizeSensitive() bool {
	return true
}

func (s *FXAAStage) Resize(width, height int, pixelRatio float32) error {
	w, h := renderer.ScaledSize(width, height, pixelRatio)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invResolution = [2]float32{1 / float32(w), 1 / float32(h)}
	return nil
}

func (s *FXAAStage) Render(ctx *FrameContext, in, out renderer.RenderTarget) (bool, error) {
	pass := renderer.NewEffectPass(s.name, renderer.EffectFXAA)
	pass.Params.InvResolution = s.InvResolution()
	if err := ctx.Renderer.RunEffect(pass, in, out); err != nil {
		return false, err
	}
	return true, nil
}
