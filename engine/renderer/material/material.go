package material

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
)

// Kind tags which parameter set a material carries.
type Kind int

const (
	// KindStandard is a metallic-roughness material.
	KindStandard Kind = iota

	// KindPhysical extends the standard model with transmission and layered features. Its extra
	// parameters live in Material.Physical.
	KindPhysical
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	if k == KindPhysical {
		return "physical"
	}
	return "standard"
}

// PhysicalParams holds the parameters only a KindPhysical material has.
type PhysicalParams struct {
	Transmission       float32
	Thickness          float32
	IOR                float32
	Clearcoat          float32
	ClearcoatRoughness float32
	Sheen              float32
	SheenRoughness     float32
	Iridescence        float32
	SpecularIntensity  float32
}

// DefaultPhysicalParams returns the parameters of a freshly imported physical material.
func DefaultPhysicalParams() PhysicalParams {
	return PhysicalParams{
		IOR:               1.5,
		SheenRoughness:    1,
		SpecularIntensity: 1,
	}
}

// Material is a render material: surface parameters plus a capability tag. Physical is non-nil
// exactly when Kind is KindPhysical; use SetPhysical and SetStandard to switch between the two so
// the pairing holds.
//
// EnvMap is a borrowed reference. The scene's environment slot owns the map, so a material never
// releases it.
type Material struct {
	Name string
	Kind Kind

	BaseColor    [4]float32
	Emissive     [3]float32
	Metalness    float32
	Roughness    float32
	Transparent  bool
	Opacity      float32
	DoubleSided  bool
	VertexColors bool

	EnvMap          *environment.Map
	EnvMapIntensity float32

	Physical *PhysicalParams

	// NeedsUpdate tells the renderer to rebuild the material's GPU state before the next draw.
	NeedsUpdate bool
}

// NewMaterial creates a new standard Material configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - *Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) *Material {
	m := &Material{
		Kind:            KindStandard,
		BaseColor:       [4]float32{1, 1, 1, 1},
		Metalness:       1.0,
		Roughness:       1.0,
		Opacity:         1.0,
		EnvMapIntensity: 1.0,
		NeedsUpdate:     true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// IsPhysical reports whether the material carries physical parameters.
func (m *Material) IsPhysical() bool {
	return m.Kind == KindPhysical && m.Physical != nil
}

// SetPhysical tags the material as physical with the given parameters.
//
// Parameters:
//   - params: the physical parameters
func (m *Material) SetPhysical(params PhysicalParams) {
	m.Kind = KindPhysical
	m.Physical = &params
	m.NeedsUpdate = true
}

// SetStandard tags the material as standard and drops any physical parameters.
func (m *Material) SetStandard() {
	m.Kind = KindStandard
	m.Physical = nil
	m.NeedsUpdate = true
}

// ConsumeUpdate clears the needs-update flag.
//
// Returns:
//   - bool: the flag's value before clearing
func (m *Material) ConsumeUpdate() bool {
	v := m.NeedsUpdate
	m.NeedsUpdate = false
	return v
}
