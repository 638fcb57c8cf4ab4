package scene

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Hit is the nearest mesh a ray passes through.
type Hit struct {
	Node *Node
	// Point is the world-space intersection.
	Point mgl32.Vec3
	// Position is the hit node's world-space origin.
	Position mgl32.Vec3
	// Distance is measured from the ray origin in world units.
	Distance float32
}

// Pick casts ray through the visible meshes below root and returns the nearest triangle hit.
// Each mesh is tested against its world box first and only then triangle by triangle in its
// local space. Geometry without indices is read as consecutive triangles.
//
// Parameters:
//   - root: the subtree to search
//   - ray: the world-space ray; its direction must be non-zero
//
// Returns:
//   - Hit: the nearest hit
//   - bool: false when nothing is hit
func Pick(root *Node, ray common.Ray) (Hit, bool) {
	var best Hit
	found := false
	if root == nil || ray.Direction.Len() < common.Epsilon {
		return best, false
	}
	ray.Direction = ray.Direction.Normalize()

	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if n.Mesh != nil && n.Mesh.Geometry != nil {
			if hit, ok := pickMesh(n, ray); ok && (!found || hit.Distance < best.Distance) {
				best, found = hit, true
			}
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
	return best, found
}

func pickMesh(n *Node, ray common.Ray) (Hit, bool) {
	g := n.Mesh.Geometry
	world := n.WorldMatrix()
	if _, ok := ray.IntersectBox(g.BoundingBox().Transform(world)); !ok {
		return Hit{}, false
	}

	local := ray.Transform(world.Inv())
	nearest := float32(-1)
	triangle := func(a, b, c uint32) {
		if int(a) >= len(g.Positions) || int(b) >= len(g.Positions) || int(c) >= len(g.Positions) {
			return
		}
		if t, ok := local.IntersectTriangle(g.Positions[a], g.Positions[b], g.Positions[c]); ok && (nearest < 0 || t < nearest) {
			nearest = t
		}
	}
	if len(g.Indices) > 0 {
		for i := 0; i+2 < len(g.Indices); i += 3 {
			triangle(g.Indices[i], g.Indices[i+1], g.Indices[i+2])
		}
	} else {
		for i := 0; i+2 < len(g.Positions); i += 3 {
			triangle(uint32(i), uint32(i+1), uint32(i+2))
		}
	}
	if nearest < 0 {
		return Hit{}, false
	}

	point := mgl32.TransformCoordinate(local.At(nearest), world)
	return Hit{
		Node:     n,
		Point:    point,
		Position: world.Col(3).Vec3(),
		Distance: point.Sub(ray.Origin).Len(),
	}, true
}
