package light

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRig(t *testing.T) {
	ambient := NewAmbientLight()
	assert.Equal(t, LightTypeAmbient, ambient.Type())
	assert.Equal(t, float32(0.35), ambient.Intensity())
	assert.Equal(t, common.White, ambient.Color())
	assert.Equal(t, mgl32.Vec3{}, ambient.Direction())

	sun := NewSunLight()
	assert.Equal(t, LightTypeDirectional, sun.Type())
	assert.Equal(t, float32(5), sun.Intensity())
	assert.True(t, sun.CastsShadows())
	assert.Equal(t, mgl32.Vec3{300, 150, 200}, sun.Position())

	dir := sun.Direction()
	assert.InDelta(t, 1, dir.Len(), 1e-5)
	l := float32(math.Sqrt(300*300 + 150*150 + 200*200))
	assert.InDelta(t, -300/l, dir.X(), 1e-5)
	assert.InDelta(t, -150/l, dir.Y(), 1e-5)
}

func TestGPULights(t *testing.T) {
	ambient := NewAmbientLight()
	sun := NewSunLight()
	extra := NewLight(LightTypeDirectional, WithPosition(mgl32.Vec3{0, 10, 0}))
	off := NewLight(LightTypeAmbient, WithIntensity(100), WithEnabled(false))

	g := NewGPULights([]Light{ambient, sun, extra, off, nil})
	assert.InDelta(t, 0.35, g.Ambient[0], 1e-6)
	assert.Equal(t, float32(1), g.SunDirection[3])
	assert.InDelta(t, 5, g.SunColor[0], 1e-6)
	assert.InDelta(t, 5*float32(0xfd)/255, g.SunColor[1], 1e-5)

	buf := g.Marshal()
	require.Len(t, buf, g.Size())

	sun.SetEnabled(false)
	g = NewGPULights([]Light{sun})
	assert.Equal(t, [4]float32{}, g.SunDirection)
}

func TestLightSetters(t *testing.T) {
	l := NewLight(LightTypeDirectional)
	l.SetPosition(mgl32.Vec3{0, 0, 5})
	l.SetTarget(mgl32.Vec3{0, 0, 5})
	assert.Equal(t, mgl32.Vec3{}, l.Direction())

	l.SetTarget(mgl32.Vec3{})
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, l.Direction())

	l.SetColor(common.ColorFromHex(0xff0000))
	l.SetIntensity(2)
	l.SetCastsShadows(true)
	assert.Equal(t, float32(1), l.Color().R)
	assert.Equal(t, float32(2), l.Intensity())
	assert.True(t, l.CastsShadows())
	assert.Equal(t, "directional", l.Type().String())
}
