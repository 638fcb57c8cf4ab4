package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a half-line from Origin along Direction. Direction need not be unit length; distances
// returned by the intersection tests are in multiples of it.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform returns the ray carried by m. The direction is transformed without translation.
func (r Ray) Transform(m mgl32.Mat4) Ray {
	return Ray{
		Origin:    mgl32.TransformCoordinate(r.Origin, m),
		Direction: mgl32.TransformNormal(r.Direction, m),
	}
}

// IntersectBox runs the slab test against b.
//
// Parameters:
//   - b: the box to test
//
// Returns:
//   - float32: the ray parameter where the ray enters the box, 0 when the origin is inside
//   - bool: false for a miss, an empty box, or a box entirely behind the origin
func (r Ray) IntersectBox(b Box3) (float32, bool) {
	if b.IsEmpty() {
		return 0, false
	}
	tMin := float32(0)
	tMax := float32(math.MaxFloat32)
	for i := 0; i < 3; i++ {
		if abs32(r.Direction[i]) < Epsilon {
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / r.Direction[i]
		t1 := (b.Min[i] - r.Origin[i]) * inv
		t2 := (b.Max[i] - r.Origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = max(tMin, t1)
		tMax = min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// IntersectTriangle tests the ray against triangle (a, b, c) from either side
// (Möller–Trumbore).
//
// Parameters:
//   - a, b, c: the triangle corners
//
// Returns:
//   - float32: the ray parameter of the hit
//   - bool: false for a miss, a hit behind the origin or a ray parallel to the triangle
func (r Ray) IntersectTriangle(a, b, c mgl32.Vec3) (float32, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if abs32(det) < Epsilon {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
