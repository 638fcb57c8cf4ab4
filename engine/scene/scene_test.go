package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitCube() *Geometry {
	return NewGeometry([]mgl32.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}, nil, []uint32{0, 1, 2, 0, 2, 3})
}

func testMap(name string) *environment.Map {
	return environment.NewMap(name, environment.KindHDR, environment.Level{Width: 1, Height: 1, Pixels: []float32{1, 1, 1}})
}

func TestNodeAddReparentsAndRejectsCycles(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	c := NewNode("c")

	require.NoError(t, a.Add(b))
	require.NoError(t, b.Add(c))
	assert.Same(t, a, b.Parent())

	assert.ErrorIs(t, c.Add(a), ErrCycle)
	assert.ErrorIs(t, a.Add(a), ErrCycle)
	assert.ErrorIs(t, a.Add(nil), ErrNilNode)

	require.NoError(t, a.Add(c))
	assert.Same(t, a, c.Parent())
	assert.Empty(t, b.Children())
	assert.Len(t, a.Children(), 2)

	assert.True(t, a.Remove(c))
	assert.Nil(t, c.Parent())
	assert.False(t, a.Remove(c))
}

func TestTraverseIsPreOrder(t *testing.T) {
	root := NewNode("root")
	left := NewNode("left")
	right := NewNode("right")
	leaf := NewNode("leaf")
	require.NoError(t, root.Add(left))
	require.NoError(t, root.Add(right))
	require.NoError(t, left.Add(leaf))

	var names []string
	root.Traverse(func(n *Node) { names = append(names, n.Name) })
	assert.Equal(t, []string{"root", "left", "leaf", "right"}, names)
}

func TestWorldMatrixComposesParents(t *testing.T) {
	parent := NewNode("parent")
	parent.Position = mgl32.Vec3{10, 0, 0}
	parent.Scale = mgl32.Vec3{2, 2, 2}
	child := NewNode("child")
	child.Position = mgl32.Vec3{0, 1, 0}
	require.NoError(t, parent.Add(child))

	p := mgl32.TransformCoordinate(mgl32.Vec3{}, child.WorldMatrix())
	assert.InDelta(t, 10, p[0], 1e-5)
	assert.InDelta(t, 2, p[1], 1e-5)
	assert.InDelta(t, 0, p[2], 1e-5)

	m := mgl32.Translate3D(0, 0, 5)
	child.Matrix = &m
	p = mgl32.TransformCoordinate(mgl32.Vec3{}, child.WorldMatrix())
	assert.InDelta(t, 10, p[0], 1e-5)
	assert.InDelta(t, 10, p[2], 1e-5)
}

func TestComputeBounds(t *testing.T) {
	root := NewNode("root")
	assert.True(t, ComputeBounds(root).IsEmpty())
	assert.True(t, ComputeBounds(nil).IsEmpty())

	a := NewMeshNode("a", NewMesh(unitCube()))
	b := NewMeshNode("b", NewMesh(unitCube()))
	b.Position = mgl32.Vec3{10, 0, 0}
	require.NoError(t, root.Add(a))
	require.NoError(t, root.Add(b))

	box := ComputeBounds(root)
	assert.InDelta(t, -1, box.Min[0], 1e-5)
	assert.InDelta(t, 11, box.Max[0], 1e-5)
	assert.InDelta(t, 1, box.Max[1], 1e-5)

	c := box.Center()
	assert.InDelta(t, 5, c[0], 1e-5)
}

func TestCollectDrawablesSkipsHidden(t *testing.T) {
	root := NewNode("root")
	shown := NewMeshNode("shown", NewMesh(unitCube(), material.NewMaterial(), material.NewMaterial()))
	hidden := NewMeshNode("hidden", NewMesh(unitCube()))
	hidden.Visible = false
	require.NoError(t, root.Add(shown))
	require.NoError(t, root.Add(hidden))

	drawables := CollectDrawables(root)
	assert.Len(t, drawables, 2)
	assert.Equal(t, shown.ID.String(), drawables[0].NodeID)
}

func TestNormalizeMaterialsSetsShadowFlags(t *testing.T) {
	env := testMap("env.hdr")
	water := material.NewMaterial(material.WithName("water"))
	brick := material.NewMaterial(material.WithName("brick"), material.WithMetalness(1))
	root := NewNode("fragment")
	meshNode := NewMeshNode("mesh", NewMesh(unitCube(), water, brick))
	empty := NewNode("empty")
	require.NoError(t, root.Add(meshNode))
	require.NoError(t, root.Add(empty))

	count := NormalizeMaterials(root, env, 1, false)
	assert.Equal(t, 2, count)
	assert.True(t, meshNode.CastShadow)
	assert.False(t, meshNode.ReceiveShadow)
	assert.False(t, empty.CastShadow)
	assert.True(t, water.Transparent)
	assert.InDelta(t, 0.1, brick.Metalness, 1e-6)
	assert.Same(t, env, brick.EnvMap)
}

func TestSceneDefaults(t *testing.T) {
	s := NewScene()
	assert.Same(t, s.Root(), s.Models().Parent())
	assert.Equal(t, 0, s.ModelCount())
	assert.False(t, s.AxesVisible())
	assert.True(t, s.ToggleAxes())

	lights := s.Lights()
	require.Len(t, lights, 2)
	assert.Equal(t, light.LightTypeAmbient, lights[0].Type())
	assert.Equal(t, light.LightTypeDirectional, lights[1].Type())

	env, intensity := s.Environment()
	assert.Nil(t, env)
	assert.InDelta(t, DefaultEnvironmentIntensity, intensity, 1e-6)
}

func TestSetEnvironmentRebindsMaterialsAndReleasesPrevious(t *testing.T) {
	s := NewScene()
	shared := material.NewMaterial(material.WithName("steel"))
	frag := NewNode("frag")
	require.NoError(t, frag.Add(NewMeshNode("a", NewMesh(unitCube(), shared))))
	require.NoError(t, frag.Add(NewMeshNode("b", NewMesh(unitCube(), shared))))
	require.NoError(t, s.AddModel(frag))

	first := testMap("first.hdr")
	second := testMap("second.hdr")

	s.SetEnvironment(first, 1, true)
	assert.Same(t, first, shared.EnvMap)
	assert.InDelta(t, 1.0, shared.EnvMapIntensity, 1e-6)

	shared.NeedsUpdate = false
	s.SetEnvironment(second, 1, false)
	assert.True(t, first.Released())
	assert.Same(t, first, shared.EnvMap)
	assert.False(t, shared.NeedsUpdate)

	s.SetEnvironment(second, 2, true)
	assert.False(t, second.Released())
	assert.Same(t, second, shared.EnvMap)
	assert.InDelta(t, 2.0, shared.EnvMapIntensity, 1e-6)

	s.SetEnvironmentIntensity(0.4)
	assert.InDelta(t, 0.4, shared.EnvMapIntensity, 1e-6)
	assert.True(t, shared.NeedsUpdate)

	s.Release()
	s.Release()
	assert.True(t, second.Released())
	env, _ := s.Environment()
	assert.Nil(t, env)
}

func TestClearModels(t *testing.T) {
	s := NewScene(WithAxesVisible(true), WithEnvironmentIntensity(1))
	require.NoError(t, s.AddModel(NewNode("a")))
	require.NoError(t, s.AddModel(NewNode("b")))
	assert.Equal(t, 2, s.ModelCount())
	s.ClearModels()
	assert.Equal(t, 0, s.ModelCount())
	assert.True(t, s.AxesVisible())
}

func TestPickReturnsNearestVisibleMesh(t *testing.T) {
	root := NewNode("root")
	near := NewMeshNode("near", NewMesh(unitCube()))
	near.Position = mgl32.Vec3{0.2, 0.3, 2}
	far := NewMeshNode("far", NewMesh(unitCube()))
	far.Position = mgl32.Vec3{0.2, 0.3, -4}
	require.NoError(t, root.Add(far))
	require.NoError(t, root.Add(near))

	ray := common.Ray{Origin: mgl32.Vec3{0, 0, 10}, Direction: mgl32.Vec3{0, 0, -2}}
	hit, ok := Pick(root, ray)
	require.True(t, ok)
	assert.Same(t, near, hit.Node)
	// unitCube's only face sits at local z = -1
	assert.InDelta(t, 1, hit.Point[2], 1e-4)
	assert.InDelta(t, 9, hit.Distance, 1e-4)
	assert.Equal(t, near.Position, hit.Position)

	near.Visible = false
	hit, ok = Pick(root, ray)
	require.True(t, ok)
	assert.Same(t, far, hit.Node)

	_, ok = Pick(root, common.Ray{Origin: mgl32.Vec3{5, 5, 10}, Direction: mgl32.Vec3{0, 0, -1}})
	assert.False(t, ok)
	_, ok = Pick(nil, ray)
	assert.False(t, ok)
}

func TestPickReadsUnindexedTriangles(t *testing.T) {
	g := NewGeometry([]mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}}, nil, nil)
	n := NewMeshNode("tri", NewMesh(g))
	n.Scale = mgl32.Vec3{2, 2, 2}

	hit, ok := Pick(n, common.Ray{Origin: mgl32.Vec3{0, 1, 5}, Direction: mgl32.Vec3{0, 0, -1}})
	require.True(t, ok)
	assert.InDelta(t, 5, hit.Distance, 1e-4)
}
