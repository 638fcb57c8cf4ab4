package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*Material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *Material) {
		m.Name = name
	}
}

// WithBaseColor is an option builder that sets the albedo RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *Material) {
		m.BaseColor = color
	}
}

// WithEmissive is an option builder that sets the emissive RGB color of the material.
//
// Parameters:
//   - color: the emissive color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive option to a material
func WithEmissive(color [3]float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Emissive = color
	}
}

// WithMetalness is an option builder that sets the metalness factor of the material.
//
// Parameters:
//   - metalness: the metalness factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metalness option to a material
func WithMetalness(metalness float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Metalness = metalness
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Roughness = roughness
	}
}

// WithTransparency is an option builder that marks the material as blended with the given opacity.
//
// Parameters:
//   - opacity: the opacity in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the transparency option to a material
func WithTransparency(opacity float32) MaterialBuilderOption {
	return func(m *Material) {
		m.Transparent = true
		m.Opacity = opacity
	}
}

// WithDoubleSided is an option builder that disables back-face culling for the material.
//
// Parameters:
//   - doubleSided: true to render both faces
//
// Returns:
//   - MaterialBuilderOption: a function that applies the double-sided option to a material
func WithDoubleSided(doubleSided bool) MaterialBuilderOption {
	return func(m *Material) {
		m.DoubleSided = doubleSided
	}
}

// WithVertexColors is an option builder that multiplies the base color by the vertex colors.
//
// Parameters:
//   - enabled: true to use vertex colors
//
// Returns:
//   - MaterialBuilderOption: a function that applies the vertex color option to a material
func WithVertexColors(enabled bool) MaterialBuilderOption {
	return func(m *Material) {
		m.VertexColors = enabled
	}
}

// WithPhysical is an option builder that tags the material as physical with the given parameters.
//
// Parameters:
//   - params: the physical parameters
//
// Returns:
//   - MaterialBuilderOption: a function that applies the physical option to a material
func WithPhysical(params PhysicalParams) MaterialBuilderOption {
	return func(m *Material) {
		m.SetPhysical(params)
	}
}
