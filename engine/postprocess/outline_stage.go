package postprocess

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
)

// OutlineStage draws a pulsing edge glow around selected objects.
type OutlineStage struct {
	*stageBase

	EdgeStrength     float32
	EdgeGlow         float32
	EdgeThickness    float32
	PulsePeriod      float32
	VisibleEdgeColor common.Color
	HiddenEdgeColor  common.Color

	selMu    *sync.Mutex
	selected []*scene.Node
	mask     renderer.RenderTarget
}

var _ Stage = &OutlineStage{}

// NewOutlineStage creates the stage with both edge colors set to highlight.
//
// Parameters:
//   - r: the renderer to allocate on
//   - highlight: the edge color
//   - width: the logical width
//   - height: the logical height
//   - pixelRatio: the device pixel ratio
//
// Returns:
//   - *OutlineStage: the stage
//   - error: error if the mask target cannot be allocated
func NewOutlineStage(r renderer.Renderer, highlight common.Color, width, height int, pixelRatio float32) (*OutlineStage, error) {
	s := &OutlineStage{
		stageBase:        newStageBase("outline", ClassOutline),
		EdgeStrength:     16,
		EdgeGlow:         1,
		EdgeThickness:    3,
		PulsePeriod:      2,
		VisibleEdgeColor: highlight,
		HiddenEdgeColor:  highlight,
		selMu:            &sync.Mutex{},
	}
	t, err := s.ownTarget(r, "outline-mask", width, height, pixelRatio)
	if err != nil {
		return nil, err
	}
	s.mask = t
	return s, nil
}

// SetSelected replaces the outlined objects.
//
// Parameters:
//   - nodes: the nodes to outline
func (s *OutlineStage) SetSelected(nodes ...*scene.Node) {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	s.selected = append([]*scene.Node(nil), nodes...)
}

// Selected returns a copy of the outlined objects.
func (s *OutlineStage) Selected() []*scene.Node {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	return append([]*scene.Node(nil), s.selected...)
}

func (s *OutlineStage) SizeSensitive() bool {
	return true
}

func (s *OutlineStage) Resize(width, height int, pixelRatio float32) error {
	return s.resizeTargets(width, height, pixelRatio)
}

// pulse returns the edge strength multiplier at elapsed seconds: 1 with no period, otherwise a
// cosine between 0 and 1.
func (s *OutlineStage) pulse(elapsed float64) float32 {
	if s.PulsePeriod <= 0 {
		return 1
	}
	return float32((1 + math.Cos(2*math.Pi*elapsed/float64(s.PulsePeriod))) / 2)
}

func (s *OutlineStage) Render(ctx *FrameContext, in, out renderer.RenderTarget) (bool, error) {
	tunables := map[string]float32{
		"edgeStrength":  s.EdgeStrength * s.pulse(ctx.Elapsed.Seconds()),
		"edgeGlow":      s.EdgeGlow,
		"edgeThickness": s.EdgeThickness,
		"pulsePeriod":   s.PulsePeriod,
		"visibleR":      s.VisibleEdgeColor.R,
		"visibleG":      s.VisibleEdgeColor.G,
		"visibleB":      s.VisibleEdgeColor.B,
		"hiddenR":       s.HiddenEdgeColor.R,
		"hiddenG":       s.HiddenEdgeColor.G,
		"hiddenB":       s.HiddenEdgeColor.B,
		"selected":      float32(len(s.Selected())),
	}

	mask := renderer.NewEffectPass("outline-mask", renderer.EffectCopy)
	mask.Tunables = tunables
	if err := ctx.Renderer.RunEffect(mask, in, s.mask); err != nil {
		return false, err
	}
	composite := renderer.NewEffectPass("outline-composite", renderer.EffectCopy)
	composite.Tunables = tunables
	if err := ctx.Renderer.RunEffect(composite, in, out); err != nil {
		return false, err
	}
	return true, nil
}
