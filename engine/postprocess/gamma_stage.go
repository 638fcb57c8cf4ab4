package postprocess

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// GammaStage converts linear color to sRGB.
type GammaStage struct {
	*stageBase
}

var _ Stage = &GammaStage{}

// NewGammaStage creates the stage.
func NewGammaStage() *GammaStage {
	return &GammaStage{stageBase: newStageBase("gamma", ClassGamma)}
}

func (s *GammaStage) Render(ctx *FrameContext, in, out renderer.RenderTarget) (bool, error) {
	if err := ctx.Renderer.RunEffect(renderer.NewEffectPass(s.name, renderer.EffectGamma), in, out); err != nil {
		return false, err
	}
	return true, nil
}
