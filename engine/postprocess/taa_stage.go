package postprocess

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

// maxTAASampleLevel caps the jitter pattern at 32 samples.
const maxTAASampleLevel = 5

// TAAStage is temporal antialiasing. The geometry pass draws each frame with the next sub-pixel
// offset of a 2^level sample pattern; this stage resolves that frame against its history target
// and keeps the result as the next frame's history.
type TAAStage struct {
	*stageBase

	history renderer.RenderTarget

	sampleLevel int
	Unbiased    bool
	Accumulate  bool

	bufferWidth  int
	bufferHeight int
}

var _ Stage = &TAAStage{}

// NewTAAStage creates the stage and its history target.
//
// Parameters:
//   - r: the renderer to allocate on
//   - sampleLevel: log2 of the pattern length; values <= 0 become 1
//   - width: the logical width
//   - height: the logical height
//   - pixelRatio: the device pixel ratio
//
// Returns:
//   - *TAAStage: the stage
//   - error: error if the history target cannot be allocated
func NewTAAStage(r renderer.Renderer, sampleLevel int, width, height int, pixelRatio float32) (*TAAStage, error) {
	s := &TAAStage{stageBase: newStageBase("taa", ClassAntialias)}
	s.SetSampleLevel(sampleLevel)
	s.bufferWidth, s.bufferHeight = renderer.ScaledSize(width, height, pixelRatio)
	t, err := s.ownTarget(r, "taa-history", width, height, pixelRatio)
	if err != nil {
		return nil, err
	}
	s.history = t
	return s, nil
}

// History returns the target holding the previous resolved frame.
func (s *TAAStage) History() renderer.RenderTarget {
	return s.history
}

// SampleLevel returns log2 of the jitter pattern length.
func (s *TAAStage) SampleLevel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleLevel
}

// SetSampleLevel sets log2 of the jitter pattern length. Values <= 0 become 1.
//
// Parameters:
//   - level: the new level
func (s *TAAStage) SetSampleLevel(level int) {
	if level <= 0 {
		level = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleLevel = min(level, maxTAASampleLevel)
}

// SampleCount returns the jitter pattern length.
func (s *TAAStage) SampleCount() int {
	return 1 << s.SampleLevel()
}

// BufferSize returns the drawing buffer size the jitter is scaled to.
func (s *TAAStage) BufferSize() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferWidth, s.bufferHeight
}

func (s *TAAStage) SizeSensitive() bool {
	return true
}

func (s *TAAStage) Resize(width, height int, pixelRatio float32) error {
	s.mu.Lock()
	s.bufferWidth, s.bufferHeight = renderer.ScaledSize(width, height, pixelRatio)
	s.mu.Unlock()
	return s.resizeTargets(width, height, pixelRatio)
}

// Jitter returns the clip-space projection offset for a frame.
//
// Parameters:
//   - frame: the frame number
//
// Returns:
//   - mgl32.Vec2: the offset, within half a pixel of the center
func (s *TAAStage) Jitter(frame uint64) mgl32.Vec2 {
	n := uint64(s.SampleCount())
	i := int(frame%n) + 1
	w, h := s.BufferSize()
	px := halton(i, 2) - 0.5
	py := halton(i, 3) - 0.5
	return mgl32.Vec2{2 * px / float32(w), 2 * py / float32(h)}
}

// halton returns element i of the van der Corput sequence in base.
func halton(i, base int) float32 {
	f, r := float32(1), float32(0)
	for i > 0 {
		f /= float32(base)
		r += f * float32(i%base)
		i /= base
	}
	return common.Clamp(r, 0, 1)
}

func (s *TAAStage) Render(ctx *FrameContext, in, out renderer.RenderTarget) (bool, error) {
	n := s.SampleCount()
	tunables := map[string]float32{
		"sampleIndex": float32(ctx.Frame % uint64(n)),
		"sampleCount": float32(n),
		"unbiased":    boolTunable(s.Unbiased),
		"accumulate":  boolTunable(s.Accumulate),
	}

	resolve := renderer.NewEffectPass("taa-resolve", renderer.EffectCopy)
	resolve.Tunables = tunables
	if err := ctx.Renderer.RunEffect(resolve, in, out); err != nil {
		return false, err
	}

	resolved := out
	if resolved == nil {
		resolved = in
	}
	if err := ctx.Renderer.RunEffect(renderer.NewEffectPass("taa-history", renderer.EffectCopy), resolved, s.history); err != nil {
		return false, err
	}
	return true, nil
}

func boolTunable(v bool) float32 {
	if v {
		return 1
	}
	return 0
}
