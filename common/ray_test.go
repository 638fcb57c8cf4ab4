package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRayIntersectBox(t *testing.T) {
	box := Box3{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

	tHit, ok := Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}.IntersectBox(box)
	require.True(t, ok)
	assert.InDelta(t, 4, tHit, 1e-6)

	inside, ok := Ray{Direction: mgl32.Vec3{1, 0, 0}}.IntersectBox(box)
	require.True(t, ok)
	assert.Zero(t, inside)

	_, ok = Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, 1}}.IntersectBox(box)
	assert.False(t, ok, "box behind the origin")
	_, ok = Ray{Origin: mgl32.Vec3{3, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}.IntersectBox(box)
	assert.False(t, ok, "parallel ray outside the slab")
	_, ok = Ray{Direction: mgl32.Vec3{1, 0, 0}}.IntersectBox(NewEmptyBox3())
	assert.False(t, ok)
}

func TestRayIntersectTriangle(t *testing.T) {
	a, b, c := mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{1, -1, 0}, mgl32.Vec3{0, 1, 0}

	front := Ray{Origin: mgl32.Vec3{0, 0, 3}, Direction: mgl32.Vec3{0, 0, -1}}
	tHit, ok := front.IntersectTriangle(a, b, c)
	require.True(t, ok)
	assert.InDelta(t, 3, tHit, 1e-6)

	// triangles are hit from either side
	back := Ray{Origin: mgl32.Vec3{0, 0, -3}, Direction: mgl32.Vec3{0, 0, 1}}
	_, ok = back.IntersectTriangle(a, b, c)
	assert.True(t, ok)

	_, ok = Ray{Origin: mgl32.Vec3{2, 2, 3}, Direction: mgl32.Vec3{0, 0, -1}}.IntersectTriangle(a, b, c)
	assert.False(t, ok)
	_, ok = Ray{Origin: mgl32.Vec3{0, 0, 3}, Direction: mgl32.Vec3{1, 0, 0}}.IntersectTriangle(a, b, c)
	assert.False(t, ok, "parallel")
	_, ok = Ray{Origin: mgl32.Vec3{0, 0, 3}, Direction: mgl32.Vec3{0, 0, 1}}.IntersectTriangle(a, b, c)
	assert.False(t, ok, "behind")
}

func TestRayTransform(t *testing.T) {
	r := Ray{Origin: mgl32.Vec3{1, 0, 0}, Direction: mgl32.Vec3{0, 0, -1}}
	moved := r.Transform(mgl32.Translate3D(0, 5, 0))
	assert.Equal(t, mgl32.Vec3{1, 5, 0}, moved.Origin)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, moved.Direction)
	assert.Equal(t, mgl32.Vec3{1, 5, -2}, moved.At(2))
}
