package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULights is the GPU-aligned light uniform consumed by the scene shader.
// Matches the WGSL Lights struct layout exactly.
// Size: 48 bytes (WGSL aligned).
type GPULights struct {
	Ambient      [4]float32 // offset  0: ambient rgb premultiplied by intensity, w unused
	SunDirection [4]float32 // offset 16: normalized travel direction, w = 1 when the sun is enabled
	SunColor     [4]float32 // offset 32: sun rgb premultiplied by intensity, w unused
}

// NewGPULights folds the enabled lights into the uniform. Ambient lights add up; the first enabled
// directional light becomes the sun and any further ones are ignored.
//
// Parameters:
//   - lights: the scene lights
//
// Returns:
//   - GPULights: the uniform ready for Marshal
func NewGPULights(lights []Light) GPULights {
	var g GPULights
	sunSet := false
	for _, l := range lights {
		if l == nil || !l.Enabled() {
			continue
		}
		c, i := l.Color(), l.Intensity()
		switch l.Type() {
		case LightTypeAmbient:
			g.Ambient[0] += c.R * i
			g.Ambient[1] += c.G * i
			g.Ambient[2] += c.B * i
		case LightTypeDirectional:
			if sunSet {
				continue
			}
			d := l.Direction()
			g.SunDirection = [4]float32{d.X(), d.Y(), d.Z(), 1}
			g.SunColor = [4]float32{c.R * i, c.G * i, c.B * i, 0}
			sunSet = true
		}
	}
	return g
}

// Size returns the size of the GPULights struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPULights) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULights struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPULights) Marshal() []byte {
	buf := make([]byte, 48)
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Ambient[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.SunDirection[i]))
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(g.SunColor[i]))
	}
	return buf
}
