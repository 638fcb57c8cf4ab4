package camera

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL Camera struct in the renderer's scene shader.
// Size: 144 bytes (WGSL aligned).
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset   0: combined view-projection matrix (mat4x4<f32>)
	View           [16]float32 // offset  64: view matrix (mat4x4<f32>)
	CameraPosition [3]float32  // offset 128: world-space camera position (vec3<f32>)
	_pad           float32     // offset 140: padding to 144 bytes
}

// NewGPUCameraUniform captures the camera's current matrices and position.
//
// Parameters:
//   - c: the camera to read
//   - jitter: clip-space sub-pixel offset added to the projection (zero unless TAA is active)
//
// Returns:
//   - GPUCameraUniform: the uniform ready for Marshal
func NewGPUCameraUniform(c Camera, jitter mgl32.Vec2) GPUCameraUniform {
	return GPUCameraUniformFromMatrices(c.ViewMatrix(), c.ProjectionMatrix(), c.Position(), jitter)
}

// GPUCameraUniformFromMatrices builds the uniform from captured matrices.
//
// Parameters:
//   - view: the view matrix
//   - proj: the projection matrix
//   - position: the world-space camera position
//   - jitter: clip-space sub-pixel offset added to the projection
//
// Returns:
//   - GPUCameraUniform: the uniform ready for Marshal
func GPUCameraUniformFromMatrices(view, proj mgl32.Mat4, position mgl32.Vec3, jitter mgl32.Vec2) GPUCameraUniform {
	proj[8] += jitter.X()
	proj[9] += jitter.Y()
	return GPUCameraUniform{
		ViewProj:       proj.Mul4(view),
		View:           view,
		CameraPosition: position,
	}
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.View[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	binary.LittleEndian.PutUint32(buf[140:], 0) // _pad
	return buf
}
