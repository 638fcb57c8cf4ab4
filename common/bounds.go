package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Box3 is an axis-aligned bounding box. A box with any Max component below the matching Min
// component holds no points and reports IsEmpty.
type Box3 struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// NewEmptyBox3 returns a box that contains nothing. Expanding it by any point yields a box
// holding exactly that point.
//
// Returns:
//   - Box3: the empty box
func NewEmptyBox3() Box3 {
	inf := float32(math.Inf(1))
	return Box3{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// NewBox3FromPoints returns the smallest box holding every point, or an empty box for no points.
//
// Parameters:
//   - points: the points to enclose
//
// Returns:
//   - Box3: the enclosing box
func NewBox3FromPoints(points []mgl32.Vec3) Box3 {
	b := NewEmptyBox3()
	for _, p := range points {
		b = b.ExpandByPoint(p)
	}
	return b
}

// IsEmpty reports whether the box holds no points. A box collapsed to a single point or a plane
// is not empty.
func (b Box3) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint grows the box to include p.
func (b Box3) ExpandByPoint(p mgl32.Vec3) Box3 {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box holding both b and o. Empty boxes contribute nothing.
func (b Box3) Union(o Box3) Box3 {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return b.ExpandByPoint(o.Min).ExpandByPoint(o.Max)
}

// Center returns the midpoint of the box, or the origin for an empty box.
func (b Box3) Center() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent along each axis, or zero for an empty box.
func (b Box3) Size() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// BoundingSphere returns the sphere centered on the box with a radius of half its diagonal.
//
// Returns:
//   - Sphere: the enclosing sphere (zero radius for an empty box)
func (b Box3) BoundingSphere() Sphere {
	return Sphere{
		Center: b.Center(),
		Radius: b.Size().Len() * 0.5,
	}
}

// ContainsPoint reports whether p lies inside or on the box.
func (b Box3) ContainsPoint(p mgl32.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Transform returns the axis-aligned box enclosing the eight corners of b transformed by m.
//
// Parameters:
//   - m: the affine transform to apply
//
// Returns:
//   - Box3: the transformed box (empty stays empty)
func (b Box3) Transform(m mgl32.Mat4) Box3 {
	if b.IsEmpty() {
		return b
	}
	out := NewEmptyBox3()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.ExpandByPoint(mgl32.TransformCoordinate(corner, m))
	}
	return out
}
