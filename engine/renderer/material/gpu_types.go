package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialSource is the canonical WGSL definition of the MaterialParams struct.
// Matches GPUMaterial layout exactly (48 bytes, std140 aligned).
//
//go:embed assets/material.wgsl
var GPUMaterialSource string

// GPUMaterial is the GPU-aligned uniform for the scene fragment shader.
// Matches the WGSL MaterialParams struct layout exactly (see GPUMaterialSource).
// Size: 48 bytes.
type GPUMaterial struct {
	BaseColor    [4]float32 // offset 0: RGB albedo, alpha carries opacity when transparent
	Emissive     [4]float32 // offset 16: RGB emissive, w unused
	Metalness    float32    // offset 32
	Roughness    float32    // offset 36
	EnvIntensity float32    // offset 40: 0 when no environment map is bound
	Transmission float32    // offset 44: 0 for standard materials
}

// NewGPUMaterial packs a material into its uniform layout.
//
// Parameters:
//   - m: the material to pack
//
// Returns:
//   - GPUMaterial: the packed uniform
func NewGPUMaterial(m *Material) GPUMaterial {
	g := GPUMaterial{
		BaseColor: m.BaseColor,
		Emissive:  [4]float32{m.Emissive[0], m.Emissive[1], m.Emissive[2], 0},
		Metalness: m.Metalness,
		Roughness: m.Roughness,
	}
	if m.Transparent {
		g.BaseColor[3] = m.BaseColor[3] * m.Opacity
	}
	if m.EnvMap != nil && !m.EnvMap.Released() {
		g.EnvIntensity = m.EnvMapIntensity
	}
	if m.IsPhysical() {
		g.Transmission = m.Physical.Transmission
	}
	return g
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, 48)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.BaseColor[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Emissive[i]))
	}
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Metalness))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Roughness))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.EnvIntensity))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.Transmission))
	return buf
}
