package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox3Empty(t *testing.T) {
	b := NewEmptyBox3()
	assert.True(t, b.IsEmpty())
	assert.Equal(t, mgl32.Vec3{}, b.Center())
	assert.Equal(t, float32(0), b.BoundingSphere().Radius)

	// A single point is a degenerate but non-empty box.
	p := b.ExpandByPoint(mgl32.Vec3{1, 2, 3})
	assert.False(t, p.IsEmpty())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, p.Center())
	assert.Equal(t, float32(0), p.BoundingSphere().Radius)
}

func TestBox3UnionAndSphere(t *testing.T) {
	a := Box3{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	b := Box3{Min: mgl32.Vec3{9, -1, -1}, Max: mgl32.Vec3{11, 1, 1}}

	u := a.Union(b)
	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, u.Min)
	assert.Equal(t, mgl32.Vec3{11, 1, 1}, u.Max)
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, u.Center())

	s := u.BoundingSphere()
	assert.InDelta(t, math.Sqrt(12*12+2*2+2*2)/2, s.Radius, 1e-5)
	assert.GreaterOrEqual(t, s.Radius, float32(6))

	assert.Equal(t, a, a.Union(NewEmptyBox3()))
	assert.Equal(t, a, NewEmptyBox3().Union(a))
}

func TestBox3Transform(t *testing.T) {
	b := Box3{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

	moved := b.Transform(mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2)))
	assert.InDelta(t, 8, moved.Min.X(), 1e-5)
	assert.InDelta(t, 12, moved.Max.X(), 1e-5)
	assert.InDelta(t, -2, moved.Min.Y(), 1e-5)

	rotated := b.Transform(mgl32.HomogRotate3DY(mgl32.DegToRad(45)))
	assert.InDelta(t, math.Sqrt2, rotated.Max.X(), 1e-5)

	assert.True(t, NewEmptyBox3().Transform(mgl32.Ident4()).IsEmpty())
}

func TestFrustumContainsSphere(t *testing.T) {
	proj := PerspectiveZO(mgl32.DegToRad(60), 1, 0.1, 1000)
	view := LookAt(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	f := ExtractFrustumFromMatrix(proj.Mul4(view))

	assert.True(t, f.ContainsSphere(Sphere{Center: mgl32.Vec3{}, Radius: 1}))
	assert.False(t, f.ContainsSphere(Sphere{Center: mgl32.Vec3{}, Radius: 20}))
	assert.False(t, f.ContainsSphere(Sphere{Center: mgl32.Vec3{0, 0, 20}, Radius: 1}))

	assert.True(t, f.IntersectsBox(Box3{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}))
	assert.False(t, f.IntersectsBox(Box3{Min: mgl32.Vec3{-1, -1, 50}, Max: mgl32.Vec3{1, 1, 60}}))
}

func TestPerspectiveZODepthRange(t *testing.T) {
	proj := PerspectiveZO(mgl32.DegToRad(60), 1.5, 0.5, 100)

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -0.5, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	require.NotZero(t, near.W())
	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#fff")
	require.NoError(t, err)
	assert.Equal(t, White, c)

	c, err = ParseColor("0xff8000")
	require.NoError(t, err)
	assert.InDelta(t, 1, c.R, 1e-6)
	assert.InDelta(t, 128.0/255.0, c.G, 1e-6)
	assert.InDelta(t, 0, c.B, 1e-6)

	_, err = ParseColor("white")
	assert.Error(t, err)
	_, err = ParseColor("#12345")
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(0, 1, 5))
	assert.Equal(t, float32(5), Clamp(float32(9), 1, 5))
	assert.Equal(t, 3.0, Clamp(3.0, 1, 5))
}
