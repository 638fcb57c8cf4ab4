package renderer

// EffectMode selects the fragment program of a fullscreen effect pass.
type EffectMode uint32

const (
	// EffectCopy samples the input unchanged.
	EffectCopy EffectMode = iota
	// EffectFXAA applies fast approximate antialiasing.
	EffectFXAA
	// EffectColorCorrection applies pow then mul per channel.
	EffectColorCorrection
	// EffectGamma converts linear color to sRGB.
	EffectGamma
	// EffectOutput applies ACES filmic tone mapping and the output encoding.
	EffectOutput
)

// String returns the mode name used in logs.
func (m EffectMode) String() string {
	switch m {
	case EffectFXAA:
		return "fxaa"
	case EffectColorCorrection:
		return "color-correction"
	case EffectGamma:
		return "gamma"
	case EffectOutput:
		return "output"
	default:
		return "copy"
	}
}

// EffectPass describes one fullscreen pass. Params is uploaded as the pass uniform. Tunables
// carries stage parameters that have no slot in Params so they can be inspected.
type EffectPass struct {
	Name     string
	Mode     EffectMode
	Params   GPUEffectParams
	Tunables map[string]float32
}

// NewEffectPass creates a pass with neutral parameters.
//
// Parameters:
//   - name: the stage name
//   - mode: the fragment program
//
// Returns:
//   - EffectPass: the pass
func NewEffectPass(name string, mode EffectMode) EffectPass {
	return EffectPass{
		Name:   name,
		Mode:   mode,
		Params: NewGPUEffectParams(mode),
	}
}
