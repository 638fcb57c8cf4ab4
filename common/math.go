package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the tolerance used for float comparisons throughout the viewer.
const Epsilon = 1e-6

// PerspectiveZO creates a right-handed perspective projection matrix that maps view-space depth
// into the WebGPU clip space range [0, 1]. mgl32.Perspective targets the OpenGL [-1, 1] range,
// which would waste half the depth buffer on a WebGPU surface.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix (column-major)
func PerspectiveZO(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// LookAt builds a view matrix for an eye looking at center. When eye and center coincide, or the
// view direction is parallel to up, an alternate up axis is used so the matrix stays finite.
//
// Parameters:
//   - eye: camera position in world space
//   - center: target point the camera looks at
//   - up: preferred up vector (typically 0,1,0)
//
// Returns:
//   - mgl32.Mat4: the view matrix
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	dir := center.Sub(eye)
	if dir.Len() < Epsilon {
		return mgl32.Translate3D(-eye.X(), -eye.Y(), -eye.Z())
	}
	if dir.Normalize().Cross(up).Len() < Epsilon {
		up = mgl32.Vec3{0, 0, 1}
	}
	return mgl32.LookAtV(eye, center, up)
}

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float32) float32 {
	return rad * 180 / math.Pi
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T ~float32 | ~float64 | ~int](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp3 linearly interpolates between two vectors.
//
// Parameters:
//   - a: the start value (t = 0)
//   - b: the end value (t = 1)
//   - t: interpolation factor
//
// Returns:
//   - mgl32.Vec3: the interpolated vector
func Lerp3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
