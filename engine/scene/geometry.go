package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// Geometry holds indexed triangle data in the mesh's local space.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32

	boxOnce sync.Once
	box     common.Box3
}

// NewGeometry creates a geometry over the given vertex data. Normals and indices may be nil.
//
// Parameters:
//   - positions: vertex positions
//   - normals: per-vertex normals
//   - indices: triangle indices into positions
//
// Returns:
//   - *Geometry: the new geometry
func NewGeometry(positions, normals []mgl32.Vec3, indices []uint32) *Geometry {
	return &Geometry{
		Positions: positions,
		Normals:   normals,
		Indices:   indices,
	}
}

// BoundingBox returns the local-space box of the positions, computed on first use.
func (g *Geometry) BoundingBox() common.Box3 {
	g.boxOnce.Do(func() {
		g.box = common.NewBox3FromPoints(g.Positions)
	})
	return g.box
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

// Mesh pairs a geometry with its materials. A multi-material mesh keeps one material per
// primitive group.
type Mesh struct {
	Geometry  *Geometry
	Materials []*material.Material
}

// NewMesh creates a mesh.
//
// Parameters:
//   - geometry: the mesh geometry
//   - materials: one or more materials
//
// Returns:
//   - *Mesh: the new mesh
func NewMesh(geometry *Geometry, materials ...*material.Material) *Mesh {
	return &Mesh{
		Geometry:  geometry,
		Materials: materials,
	}
}

// Drawable is a flattened mesh ready for submission: the node's world matrix plus the geometry
// and the material to draw it with.
type Drawable struct {
	NodeID        string
	World         mgl32.Mat4
	Geometry      *Geometry
	Material      *material.Material
	CastShadow    bool
	ReceiveShadow bool
}

// ComputeBounds returns the world-space box of every mesh below root, including root itself.
//
// Parameters:
//   - root: the subtree to measure
//
// Returns:
//   - common.Box3: the union box, empty if no mesh has vertices
func ComputeBounds(root *Node) common.Box3 {
	out := common.NewEmptyBox3()
	if root == nil {
		return out
	}
	root.Traverse(func(n *Node) {
		if n.Mesh == nil || n.Mesh.Geometry == nil {
			return
		}
		out = out.Union(n.Mesh.Geometry.BoundingBox().Transform(n.WorldMatrix()))
	})
	return out
}

// CollectDrawables flattens the visible meshes below root, one entry per mesh material. A mesh
// without materials is drawn once with a nil material.
//
// Parameters:
//   - root: the subtree to flatten
//
// Returns:
//   - []Drawable: the drawables in traversal order
func CollectDrawables(root *Node) []Drawable {
	var out []Drawable
	if root == nil {
		return out
	}
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if n.Mesh != nil && n.Mesh.Geometry != nil {
			world := n.WorldMatrix()
			mats := n.Mesh.Materials
			if len(mats) == 0 {
				mats = []*material.Material{nil}
			}
			for _, m := range mats {
				out = append(out, Drawable{
					NodeID:        n.ID.String(),
					World:         world,
					Geometry:      n.Mesh.Geometry,
					Material:      m,
					CastShadow:    n.CastShadow,
					ReceiveShadow: n.ReceiveShadow,
				})
			}
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
	return out
}
