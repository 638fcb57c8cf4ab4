package postprocess

import (
	"maps"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
)

// SSAOOutput selects what the SSAO stage writes.
type SSAOOutput int

const (
	// SSAOOutputDefault composites occlusion over the beauty pass.
	SSAOOutputDefault SSAOOutput = iota
	// SSAOOutputSSAO writes the raw occlusion term.
	SSAOOutputSSAO
)

// SSAOOptions tunes the ambient occlusion stage.
type SSAOOptions struct {
	KernelRadius float32
	MinDistance  float32
	MaxDistance  float32
	Output       SSAOOutput
}

// DefaultSSAOOptions returns the stock SSAO tuning.
func DefaultSSAOOptions() SSAOOptions {
	return SSAOOptions{
		KernelRadius: 8,
		MinDistance:  0.005,
		MaxDistance:  0.1,
		Output:       SSAOOutputDefault,
	}
}

// SSAOStage is screen-space ambient occlusion. It renders an occlusion target and composites it
// with the beauty pass.
type SSAOStage struct {
	*stageBase

	options   SSAOOptions
	occlusion renderer.RenderTarget
}

var _ Stage = &SSAOStage{}

// NewSSAOStage creates the stage and its occlusion target.
//
// Parameters:
//   - r: the renderer to allocate on
//   - options: the SSAO tuning
//   - width: the logical width
//   - height: the logical height
//   - pixelRatio: the device pixel ratio
//
// Returns:
//   - *SSAOStage: the stage
//   - error: error if the target cannot be allocated
func NewSSAOStage(r renderer.Renderer, options SSAOOptions, width, height int, pixelRatio float32) (*SSAOStage, error) {
	s := &SSAOStage{stageBase: newStageBase("ssao", ClassAmbientOcclusion), options: options}
	t, err := s.ownTarget(r, "ssao-occlusion", width, height, pixelRatio)
	if err != nil {
		return nil, err
	}
	s.occlusion = t
	return s, nil
}

// Options returns the current tuning.
func (s *SSAOStage) Options() SSAOOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// SetOptions replaces the tuning.
//
// Parameters:
//   - options: the new tuning
func (s *SSAOStage) SetOptions(options SSAOOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = options
}

// Occlusion returns the occlusion target.
func (s *SSAOStage) Occlusion() renderer.RenderTarget {
	return s.occlusion
}

func (s *SSAOStage) SizeSensitive() bool {
	return true
}

func (s *SSAOStage) Resize(width, height int, pixelRatio float32) error {
	return s.resizeTargets(width, height, pixelRatio)
}

func (s *SSAOStage) Render(ctx *FrameContext, in, out renderer.RenderTarget) (bool, error) {
	opts := s.Options()
	tunables := map[string]float32{
		"kernelRadius": opts.KernelRadius,
		"minDistance":  opts.MinDistance,
		"maxDistance":  opts.MaxDistance,
		"output":       float32(opts.Output),
	}

	occlusion := renderer.NewEffectPass("ssao-occlusion", renderer.EffectCopy)
	occlusion.Tunables = tunables
	if err := ctx.Renderer.RunEffect(occlusion, in, s.occlusion); err != nil {
		return false, err
	}

	source := in
	if opts.Output == SSAOOutputSSAO {
		source = s.occlusion
	}
	composite := renderer.NewEffectPass("ssao-composite", renderer.EffectCopy)
	composite.Tunables = maps.Clone(tunables)
	if err := ctx.Renderer.RunEffect(composite, source, out); err != nil {
		return false, err
	}
	return true, nil
}
