package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/material"
)

// GPUEffectParamsSource is the canonical WGSL definition of the EffectParams struct.
// Matches GPUEffectParams layout exactly (64 bytes).
//
//go:embed assets/effect_params.wgsl
var GPUEffectParamsSource string

//go:embed assets/effect.wgsl
var effectShaderBody string

//go:embed assets/scene.wgsl
var sceneShaderBody string

// EffectShaderSource is the complete fullscreen effect shader.
var EffectShaderSource = GPUEffectParamsSource + effectShaderBody

// SceneShaderSource is the complete geometry pass shader.
var SceneShaderSource = material.GPUMaterialSource + sceneShaderBody

// EffectFlagEncodeSRGB asks the output pass to encode its result as sRGB.
const EffectFlagEncodeSRGB uint32 = 1

// GPUEffectParams is the GPU-aligned uniform for the fullscreen effect shader.
// Matches the WGSL EffectParams struct layout exactly (see GPUEffectParamsSource).
// Size: 64 bytes.
type GPUEffectParams struct {
	Mode          uint32     // offset 0: EffectMode
	Flags         uint32     // offset 4: EffectFlag bits
	Exposure      float32    // offset 8: tone mapping exposure
	_pad0         float32    // offset 12
	InvResolution [2]float32 // offset 16: 1 / drawing buffer size
	_pad1         [2]float32 // offset 24
	PowRGB        [4]float32 // offset 32: color correction exponent, w unused
	MulRGB        [4]float32 // offset 48: color correction multiplier, w unused
}

// NewGPUEffectParams returns params for mode that leave the image unchanged.
//
// Parameters:
//   - mode: the effect mode
//
// Returns:
//   - GPUEffectParams: the neutral params
func NewGPUEffectParams(mode EffectMode) GPUEffectParams {
	return GPUEffectParams{
		Mode:     uint32(mode),
		Exposure: 1,
		PowRGB:   [4]float32{1, 1, 1, 1},
		MulRGB:   [4]float32{1, 1, 1, 1},
	}
}

// Size returns the size of the GPUEffectParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUEffectParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUEffectParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUEffectParams) Marshal() []byte {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf[0:4], g.Mode)
	binary.LittleEndian.PutUint32(buf[4:8], g.Flags)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Exposure))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.InvResolution[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.InvResolution[1]))
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[32+i*4:], math.Float32bits(g.PowRGB[i]))
		binary.LittleEndian.PutUint32(buf[48+i*4:], math.Float32bits(g.MulRGB[i]))
	}
	return buf
}

// GPUDrawUniform is the per-draw uniform of the geometry pass: the model matrix followed by the
// packed material. Matches the WGSL Draw struct.
// Size: 112 bytes.
type GPUDrawUniform struct {
	Model    [16]float32          // offset 0: world matrix
	Material material.GPUMaterial // offset 64
}

// Size returns the size of the GPUDrawUniform struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUDrawUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDrawUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload.
func (g *GPUDrawUniform) Marshal() []byte {
	buf := make([]byte, 0, 112)
	for _, f := range g.Model {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return append(buf, g.Material.Marshal()...)
}

// drawUniformStride is the dynamic-offset slot size; WebGPU requires 256-byte alignment.
const drawUniformStride = 256
