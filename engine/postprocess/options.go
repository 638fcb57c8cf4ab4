package postprocess

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// Options selects and sizes the post-processing chain.
type Options struct {
	UseSSAO            bool
	UseOutline         bool
	UseTAA             bool
	UseFXAA            bool
	UseSMAA            bool
	UseGammaCorrection bool
	UseColorCorrection bool

	TAASampleLevel int
	Width          int
	Height         int
	PixelRatio     float32

	HighlightColor common.Color
	SSAO           SSAOOptions
}

// DefaultOptions returns a chain with no optional effects.
func DefaultOptions() Options {
	return Options{
		TAASampleLevel: 1,
		Width:          1,
		Height:         1,
		PixelRatio:     1,
		HighlightColor: common.White,
		SSAO:           DefaultSSAOOptions(),
	}
}

// StageKind names a concrete stage in a plan.
type StageKind int

const (
	KindRender StageKind = iota
	KindSSAO
	KindOutline
	KindTAA
	KindFXAA
	KindSMAA
	KindColorCorrection
	KindGamma
	KindOutput
)

// String returns the stage name.
func (k StageKind) String() string {
	switch k {
	case KindRender:
		return "render"
	case KindSSAO:
		return "ssao"
	case KindOutline:
		return "outline"
	case KindTAA:
		return "taa"
	case KindFXAA:
		return "fxaa"
	case KindSMAA:
		return "smaa"
	case KindColorCorrection:
		return "color-correction"
	case KindGamma:
		return "gamma"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// StageSpec is one entry of a plan.
type StageSpec struct {
	Kind    StageKind
	Class   OrderClass
	Enabled bool
}

// Plan lays out the chain for options: every known stage with its class and whether it runs,
// sorted by class. At most one antialias stage is enabled, picked TAA first, then FXAA, then
// SMAA. Render and output are always enabled.
//
// Parameters:
//   - options: the effect selection
//
// Returns:
//   - []StageSpec: the plan in run order
func Plan(options Options) []StageSpec {
	aa := KindRender
	switch {
	case options.UseTAA:
		aa = KindTAA
	case options.UseFXAA:
		aa = KindFXAA
	case options.UseSMAA:
		aa = KindSMAA
	}

	plan := []StageSpec{
		{Kind: KindOutput, Class: ClassOutput, Enabled: true},
		{Kind: KindGamma, Class: ClassGamma, Enabled: options.UseGammaCorrection},
		{Kind: KindColorCorrection, Class: ClassColorGrade, Enabled: options.UseColorCorrection},
		{Kind: KindTAA, Class: ClassAntialias, Enabled: aa == KindTAA},
		{Kind: KindFXAA, Class: ClassAntialias, Enabled: aa == KindFXAA},
		{Kind: KindSMAA, Class: ClassAntialias, Enabled: aa == KindSMAA},
		{Kind: KindOutline, Class: ClassOutline, Enabled: options.UseOutline},
		{Kind: KindSSAO, Class: ClassAmbientOcclusion, Enabled: options.UseSSAO},
		{Kind: KindRender, Class: ClassGeometry, Enabled: true},
	}
	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].Class < plan[j].Class
	})
	return plan
}
