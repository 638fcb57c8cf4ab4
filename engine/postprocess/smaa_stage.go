package postprocess

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// SMAAStage is subpixel morphological antialiasing: edge detection, blend weights, then
// neighborhood blending.
type SMAAStage struct {
	*stageBase

	edges   renderer.RenderTarget
	weights renderer.RenderTarget
}

var _ Stage = &SMAAStage{}

// NewSMAAStage creates the stage and its edge and weight targets.
//
// Parameters:
//   - r: the renderer to allocate on
//   - width: the logical width
//   - height: the logical height
//   - pixelRatio: the device pixel ratio
//
// Returns:
//   - *SMAAStage: the stage
//   - error: error if a target cannot be allocated
func NewSMAAStage(r renderer.Renderer, width, height int, pixelRatio float32) (*SMAAStage, error) {
	s := &SMAAStage{stageBase: newStageBase("smaa", ClassAntialias)}
	var err error
	if s.edges, err = s.ownTarget(r, "smaa-edges", width, height, pixelRatio); err != nil {
		return nil, err
	}
	if s.weights, err = s.ownTarget(r, "smaa-weights", width, height, pixelRatio); err != nil {
		s.Dispose()
		return nil, err
	}
	return s, nil
}

// Edges returns the edge detection target.
func (s *SMAAStage) Edges() renderer.RenderTarget {
	return s.edges
}

// Weights returns the blend weight target.
func (s *SMAAStage) Weights() renderer.RenderTarget {
	return s.weights
}

func (s *SMAAStage) SizeSensitive() bool {
	return true
}

func (s *SMAAStage) Resize(width, height int, pixelRatio float32) error {
	return s.resizeTargets(width, height, pixelRatio)
}

func (s *SMAAStage) Render(ctx *FrameContext, in, out renderer.RenderTarget) (bool, error) {
	steps := []struct {
		name    string
		in, out renderer.RenderTarget
	}{
		{"smaa-edges", in, s.edges},
		{"smaa-weights", s.edges, s.weights},
		{"smaa-blend", in, out},
	}
	for _, step := range steps {
		pass := renderer.NewEffectPass(step.name, renderer.EffectCopy)
		pass.Tunables = map[string]float32{"width": float32(s.edges.Width()), "height": float32(s.edges.Height())}
		if err := ctx.Renderer.RunEffect(pass, step.in, step.out); err != nil {
			return false, err
		}
	}
	return true, nil
}
