package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// Frustum represents the six planes of a view frustum.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix built with
// PerspectiveZO. Uses the Gribb/Hartmann method; the near plane is row 2 alone because WebGPU
// clip depth starts at 0 rather than -w.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - vp: the combined projection * view matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(vp mgl32.Mat4) Frustum {
	var f Frustum

	row := func(r int) (mgl32.Vec3, float32) {
		return mgl32.Vec3{vp[r], vp[4+r], vp[8+r]}, vp[12+r]
	}
	r0, d0 := row(0)
	r1, d1 := row(1)
	r2, d2 := row(2)
	r3, d3 := row(3)

	f.Planes[FrustumLeft] = Plane{Normal: r3.Add(r0), Distance: d3 + d0}
	f.Planes[FrustumRight] = Plane{Normal: r3.Sub(r0), Distance: d3 - d0}
	f.Planes[FrustumBottom] = Plane{Normal: r3.Add(r1), Distance: d3 + d1}
	f.Planes[FrustumTop] = Plane{Normal: r3.Sub(r1), Distance: d3 - d1}
	f.Planes[FrustumNear] = Plane{Normal: r2, Distance: d2}
	f.Planes[FrustumFar] = Plane{Normal: r3.Sub(r2), Distance: d3 - d2}

	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// ContainsSphere reports whether the whole sphere lies inside every plane of the frustum.
//
// Parameters:
//   - s: the sphere to test
//
// Returns:
//   - bool: true if no part of the sphere is clipped
func (f Frustum) ContainsSphere(s Sphere) bool {
	for _, p := range f.Planes {
		if p.Normal.Dot(s.Center)+p.Distance < s.Radius {
			return false
		}
	}
	return true
}

// IntersectsBox reports whether any part of the box may be inside the frustum.
// The test is conservative: boxes near frustum corners can report true while outside.
//
// Parameters:
//   - b: the box to test
//
// Returns:
//   - bool: false only when the box is fully outside one plane
func (f Frustum) IntersectsBox(b Box3) bool {
	if b.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		// positive vertex: the corner furthest along the plane normal
		var v mgl32.Vec3
		for i := 0; i < 3; i++ {
			if p.Normal[i] >= 0 {
				v[i] = b.Max[i]
			} else {
				v[i] = b.Min[i]
			}
		}
		if p.Normal.Dot(v)+p.Distance < 0 {
			return false
		}
	}
	return true
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := float32(math.Sqrt(float64(p.Normal.Dot(p.Normal))))

	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
}
