package postprocess

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// ColorCorrectionStage raises each channel to PowRGB, then scales it by MulRGB.
type ColorCorrectionStage struct {
	*stageBase

	PowRGB mgl32.Vec3
	MulRGB mgl32.Vec3
}

var _ Stage = &ColorCorrectionStage{}

// NewColorCorrectionStage creates a stage that leaves colors unchanged.
func NewColorCorrectionStage() *ColorCorrectionStage {
	return &ColorCorrectionStage{
		stageBase: newStageBase("color-correction", ClassColorGrade),
		PowRGB:    mgl32.Vec3{1, 1, 1},
		MulRGB:    mgl32.Vec3{1, 1, 1},
	}
}

func (s *ColorCorrectionStage) Render(ctx *FrameContext, in, out renderer.RenderTarget) (bool, error) {
	pass := renderer.NewEffectPass(s.name, renderer.EffectColorCorrection)
	pass.Params.PowRGB = s.PowRGB.Vec4(1)
	pass.Params.MulRGB = s.MulRGB.Vec4(1)
	if err := ctx.Renderer.RunEffect(pass, in, out); err != nil {
		return false, err
	}
	return true, nil
}
