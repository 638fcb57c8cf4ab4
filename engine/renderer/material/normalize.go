package material

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
)

// Class is the surface family a material name suggests.
type Class int

const (
	ClassDefault Class = iota
	ClassWater
	ClassMetal
	ClassConcrete
	ClassGlass
)

// String returns the class name used in logs.
func (c Class) String() string {
	switch c {
	case ClassWater:
		return "water"
	case ClassMetal:
		return "metal"
	case ClassConcrete:
		return "concrete"
	case ClassGlass:
		return "glass"
	default:
		return "default"
	}
}

// classKeywords is checked in order; the first class with a matching keyword wins.
var classKeywords = []struct {
	class    Class
	keywords []string
}{
	{ClassWater, []string{"water", "水"}},
	{ClassMetal, []string{"metal", "steel", "iron"}},
	{ClassConcrete, []string{"concrete", "混凝土"}},
	{ClassGlass, []string{"glass", "玻璃"}},
}

// Classify picks a surface class by case-insensitive keyword match on a material name.
//
// Parameters:
//   - name: the material name
//
// Returns:
//   - Class: the first matching class, or ClassDefault
func Classify(name string) Class {
	lower := strings.ToLower(name)
	for _, entry := range classKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.class
			}
		}
	}
	return ClassDefault
}

// envIntensityScale is applied to the scene intensity before it is stored on a material.
const envIntensityScale = 0.5

// Normalize rewrites an imported material into the viewer's house style: it binds the shared
// environment map, applies the preset of the material's name class and switches off the layered
// physical features. The material is flagged for a GPU update.
//
// Parameters:
//   - m: the material to rewrite
//   - env: the shared environment map, may be nil
//   - intensity: the scene environment intensity
//
// Returns:
//   - Class: the class the material was normalized as
func Normalize(m *Material, env *environment.Map, intensity float32) Class {
	m.EnvMap = env
	m.EnvMapIntensity = intensity * envIntensityScale
	m.VertexColors = false

	class := Classify(m.Name)
	switch class {
	case ClassWater:
		m.Metalness = 0
		m.Roughness = 0.3
		m.Transparent = true
		m.Opacity = 0.8
		if m.IsPhysical() {
			m.Physical.Transmission = 0.7
			m.Physical.Thickness = 0.3
		}
	case ClassMetal:
		m.Metalness = 0.6
		m.Roughness = 0.4
	case ClassConcrete:
		m.Metalness = 0
		m.Roughness = 0.9
	case ClassGlass:
		m.Metalness = 0
		m.Roughness = 0.1
		m.Transparent = true
		m.Opacity = 0.5
		if m.IsPhysical() {
			m.Physical.Transmission = 0.8
			m.Physical.Thickness = 0.1
		}
	default:
		// exported metalness of exactly 0 or 1 is almost always a missing texture, not a choice
		if m.Metalness == 0 || m.Metalness == 1 {
			m.Metalness = 0.1
		}
		if m.Roughness == 0 {
			m.Roughness = 0.8
		}
	}

	if m.IsPhysical() {
		m.Physical.Clearcoat = 0
		m.Physical.ClearcoatRoughness = 0.5
		m.Physical.Sheen = 0
		m.Physical.SheenRoughness = 1
		m.Physical.Iridescence = 0
	}

	m.NeedsUpdate = true
	return class
}

// BindEnvironment points the material at a new environment map without touching its preset.
// Unlike Normalize, the intensity is stored as given: only the post-load pass dims it.
//
// Parameters:
//   - m: the material to update
//   - env: the shared environment map, may be nil
//   - intensity: the scene environment intensity
func BindEnvironment(m *Material, env *environment.Map, intensity float32) {
	m.EnvMap = env
	m.EnvMapIntensity = intensity
	m.NeedsUpdate = true
}
