package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvMap() *environment.Map {
	return environment.NewMap("test.hdr", environment.KindHDR, environment.Level{
		Width:  1,
		Height: 1,
		Pixels: []float32{1, 1, 1},
	})
}

func TestClassify(t *testing.T) {
	cases := map[string]Class{
		"Water_01":        ClassWater,
		"湖水":              ClassWater,
		"SteelBeam":       ClassMetal,
		"iron_gate":       ClassMetal,
		"METAL":           ClassMetal,
		"Concrete.002":    ClassConcrete,
		"混凝土":             ClassConcrete,
		"WindowGlass":     ClassGlass,
		"玻璃幕墙":            ClassGlass,
		"Brick":           ClassDefault,
		"":                ClassDefault,
		"water_and_glass": ClassWater,
		"glass_steel":     ClassMetal,
	}
	for name, want := range cases {
		assert.Equal(t, want, Classify(name), "name %q", name)
	}
}

func TestNormalizeWaterPhysical(t *testing.T) {
	env := testEnvMap()
	m := NewMaterial(WithName("Water_01"), WithPhysical(PhysicalParams{
		Clearcoat:   1,
		Sheen:       0.5,
		Iridescence: 1,
	}), WithVertexColors(true))
	m.NeedsUpdate = false

	class := Normalize(m, env, 1.0)

	assert.Equal(t, ClassWater, class)
	assert.Same(t, env, m.EnvMap)
	assert.InDelta(t, 0.5, m.EnvMapIntensity, 1e-6)
	assert.False(t, m.VertexColors)
	assert.InDelta(t, 0, m.Metalness, 1e-6)
	assert.InDelta(t, 0.3, m.Roughness, 1e-6)
	assert.True(t, m.Transparent)
	assert.InDelta(t, 0.8, m.Opacity, 1e-6)
	require.NotNil(t, m.Physical)
	assert.InDelta(t, 0.7, m.Physical.Transmission, 1e-6)
	assert.InDelta(t, 0.3, m.Physical.Thickness, 1e-6)
	assert.Zero(t, m.Physical.Clearcoat)
	assert.InDelta(t, 0.5, m.Physical.ClearcoatRoughness, 1e-6)
	assert.Zero(t, m.Physical.Sheen)
	assert.InDelta(t, 1, m.Physical.SheenRoughness, 1e-6)
	assert.Zero(t, m.Physical.Iridescence)
	assert.True(t, m.NeedsUpdate)
}

func TestNormalizeGlassStandardHasNoTransmission(t *testing.T) {
	m := NewMaterial(WithName("Glass"))
	Normalize(m, nil, 2.0)

	assert.Equal(t, KindStandard, m.Kind)
	assert.Nil(t, m.Physical)
	assert.Nil(t, m.EnvMap)
	assert.InDelta(t, 1.0, m.EnvMapIntensity, 1e-6)
	assert.InDelta(t, 0.1, m.Roughness, 1e-6)
	assert.True(t, m.Transparent)
	assert.InDelta(t, 0.5, m.Opacity, 1e-6)
}

func TestNormalizeMetalAndConcrete(t *testing.T) {
	metal := NewMaterial(WithName("SteelBeam"), WithMetalness(1), WithRoughness(0))
	Normalize(metal, nil, 1)
	assert.InDelta(t, 0.6, metal.Metalness, 1e-6)
	assert.InDelta(t, 0.4, metal.Roughness, 1e-6)
	assert.False(t, metal.Transparent)

	concrete := NewMaterial(WithName("concrete_floor"), WithMetalness(0.3))
	Normalize(concrete, nil, 1)
	assert.InDelta(t, 0, concrete.Metalness, 1e-6)
	assert.InDelta(t, 0.9, concrete.Roughness, 1e-6)
}

func TestNormalizeDefaultClass(t *testing.T) {
	t.Run("forces extremes", func(t *testing.T) {
		for _, metal := range []float32{0, 1} {
			m := NewMaterial(WithName("Brick"), WithMetalness(metal), WithRoughness(0))
			Normalize(m, nil, 1)
			assert.InDelta(t, 0.1, m.Metalness, 1e-6)
			assert.InDelta(t, 0.8, m.Roughness, 1e-6)
		}
	})

	t.Run("keeps authored values", func(t *testing.T) {
		m := NewMaterial(WithName("Brick"), WithMetalness(0.35), WithRoughness(0.6))
		Normalize(m, nil, 1)
		assert.InDelta(t, 0.35, m.Metalness, 1e-6)
		assert.InDelta(t, 0.6, m.Roughness, 1e-6)
	})
}

func TestNormalizeIsIdempotent(t *testing.T) {
	env := testEnvMap()
	m := NewMaterial(WithName("Water"), WithPhysical(DefaultPhysicalParams()))
	Normalize(m, env, 1)
	first := *m
	firstPhysical := *m.Physical

	Normalize(m, env, 1)
	assert.Equal(t, first.Metalness, m.Metalness)
	assert.Equal(t, first.Roughness, m.Roughness)
	assert.Equal(t, first.Opacity, m.Opacity)
	assert.Equal(t, firstPhysical, *m.Physical)
}

func TestKindSwitchKeepsPayloadPaired(t *testing.T) {
	m := NewMaterial()
	assert.False(t, m.IsPhysical())

	m.SetPhysical(DefaultPhysicalParams())
	assert.True(t, m.IsPhysical())
	assert.Equal(t, "physical", m.Kind.String())

	m.SetStandard()
	assert.False(t, m.IsPhysical())
	assert.Nil(t, m.Physical)
	assert.True(t, m.ConsumeUpdate())
	assert.False(t, m.ConsumeUpdate())
}

func TestBindEnvironment(t *testing.T) {
	env := testEnvMap()
	m := NewMaterial(WithName("SteelBeam"), WithMetalness(0.2))
	m.NeedsUpdate = false

	BindEnvironment(m, env, 0.8)
	assert.Same(t, env, m.EnvMap)
	assert.InDelta(t, 0.8, m.EnvMapIntensity, 1e-6)
	assert.InDelta(t, 0.2, m.Metalness, 1e-6)
	assert.True(t, m.NeedsUpdate)
}

func TestGPUMaterial(t *testing.T) {
	env := testEnvMap()
	m := NewMaterial(
		WithBaseColor([4]float32{0.5, 0.25, 1, 1}),
		WithTransparency(0.5),
		WithPhysical(PhysicalParams{Transmission: 0.8}),
	)
	BindEnvironment(m, env, 1)

	g := NewGPUMaterial(m)
	assert.Equal(t, 48, g.Size())
	assert.InDelta(t, 0.5, g.BaseColor[3], 1e-6)
	assert.InDelta(t, 1.0, g.EnvIntensity, 1e-6)
	assert.InDelta(t, 0.8, g.Transmission, 1e-6)
	assert.Len(t, g.Marshal(), 48)

	env.Release()
	g = NewGPUMaterial(m)
	assert.Zero(t, g.EnvIntensity)
}
