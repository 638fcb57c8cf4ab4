package loader

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfSceneBuilder turns a parsed document into a scene fragment. Geometry is built once per
// mesh primitive and shared by every node that instances the mesh.
type gltfSceneBuilder struct {
	parser    *gltfParser
	doc       *gltfDocument
	materials *gltfMaterialBuilder
	meshes    map[int][]primitiveData
}

type primitiveData struct {
	geometry *scene.Geometry
	colors   bool
	matIndex *int
}

func newGLTFSceneBuilder(parser *gltfParser) *gltfSceneBuilder {
	doc := parser.Document()
	return &gltfSceneBuilder{
		parser:    parser,
		doc:       doc,
		materials: newGLTFMaterialBuilder(doc),
		meshes:    make(map[int][]primitiveData),
	}
}

// Build creates the fragment root named name with the default scene below it. Without a scene
// list every parentless node becomes a root.
//
// Parameters:
//   - ctx: checked between nodes
//   - name: the fragment root name
//
// Returns:
//   - *scene.Node: the fragment root
//   - error: error if a node, mesh or material is malformed or ctx is done
func (b *gltfSceneBuilder) Build(ctx context.Context, name string) (*scene.Node, error) {
	root := scene.NewNode(name)
	roots, err := b.rootNodes()
	if err != nil {
		return nil, err
	}

	onPath := make([]bool, len(b.doc.Nodes))
	for _, idx := range roots {
		child, err := b.buildNode(ctx, idx, onPath)
		if err != nil {
			return nil, err
		}
		if err := root.Add(child); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (b *gltfSceneBuilder) rootNodes() ([]int, error) {
	if len(b.doc.Scenes) > 0 {
		idx := 0
		if b.doc.Scene != nil {
			idx = *b.doc.Scene
		}
		if idx < 0 || idx >= len(b.doc.Scenes) {
			return nil, fmt.Errorf("scene index %d out of range", idx)
		}
		return b.doc.Scenes[idx].Nodes, nil
	}

	isChild := make([]bool, len(b.doc.Nodes))
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

func (b *gltfSceneBuilder) buildNode(ctx context.Context, idx int, onPath []bool) (*scene.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if onPath[idx] {
		return nil, fmt.Errorf("node %d is its own ancestor", idx)
	}
	onPath[idx] = true
	defer func() { onPath[idx] = false }()

	gn := &b.doc.Nodes[idx]
	n := scene.NewNode(gn.Name)
	applyTransform(n, gn)

	if gn.Mesh != nil {
		if err := b.attachMesh(n, *gn.Mesh); err != nil {
			return nil, fmt.Errorf("node %d: %w", idx, err)
		}
	}

	for _, c := range gn.Children {
		child, err := b.buildNode(ctx, c, onPath)
		if err != nil {
			return nil, err
		}
		if err := n.Add(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// applyTransform copies the node's local transform. glTF rotations are stored x, y, z, w.
func applyTransform(n *scene.Node, gn *gltfNode) {
	if gn.Matrix != nil {
		m := mgl32.Mat4(*gn.Matrix)
		n.Matrix = &m
		return
	}
	if t := gn.Translation; t != nil {
		n.Position = mgl32.Vec3{t[0], t[1], t[2]}
	}
	if r := gn.Rotation; r != nil {
		n.Rotation = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
	}
	if s := gn.Scale; s != nil {
		n.Scale = mgl32.Vec3{s[0], s[1], s[2]}
	}
}

// attachMesh puts a single-primitive mesh directly on n and gives each primitive of a
// multi-primitive mesh its own child node.
func (b *gltfSceneBuilder) attachMesh(n *scene.Node, meshIdx int) error {
	prims, err := b.meshPrimitives(meshIdx)
	if err != nil {
		return err
	}
	if len(prims) == 1 {
		mat, err := b.materials.Material(prims[0].matIndex, prims[0].colors)
		if err != nil {
			return err
		}
		n.Mesh = scene.NewMesh(prims[0].geometry, mat)
		return nil
	}

	meshName := b.doc.Meshes[meshIdx].Name
	for i, p := range prims {
		mat, err := b.materials.Material(p.matIndex, p.colors)
		if err != nil {
			return err
		}
		child := scene.NewMeshNode(fmt.Sprintf("%s_%d", meshName, i), scene.NewMesh(p.geometry, mat))
		if err := n.Add(child); err != nil {
			return err
		}
	}
	return nil
}

// meshPrimitives builds the triangle primitives of a mesh once. Point and line primitives are
// skipped.
func (b *gltfSceneBuilder) meshPrimitives(meshIdx int) ([]primitiveData, error) {
	if prims, ok := b.meshes[meshIdx]; ok {
		return prims, nil
	}
	if meshIdx < 0 || meshIdx >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIdx)
	}

	var prims []primitiveData
	for i, gp := range b.doc.Meshes[meshIdx].Primitives {
		if gp.Mode != nil && *gp.Mode != gltfModeTriangles {
			continue
		}
		if _, ok := gp.Extensions[khrDracoMeshCompression]; ok {
			return nil, fmt.Errorf("mesh %d primitive %d: %w: %s", meshIdx, i, ErrUnsupportedExtension, khrDracoMeshCompression)
		}
		geom, err := b.primitiveGeometry(gp)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIdx, i, err)
		}
		_, colors := gp.Attributes["COLOR_0"]
		prims = append(prims, primitiveData{geometry: geom, colors: colors, matIndex: gp.Material})
	}
	b.meshes[meshIdx] = prims
	return prims, nil
}

func (b *gltfSceneBuilder) primitiveGeometry(gp gltfPrimitive) (*scene.Geometry, error) {
	posIdx, ok := gp.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}
	raw, err := b.parser.ReadVec3(posIdx)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}
	positions := toVec3(raw)

	var normals []mgl32.Vec3
	if nIdx, ok := gp.Attributes["NORMAL"]; ok {
		raw, err := b.parser.ReadVec3(nIdx)
		if err != nil {
			return nil, fmt.Errorf("failed to read normals: %w", err)
		}
		if len(raw) != len(positions) {
			return nil, fmt.Errorf("normal count %d does not match position count %d", len(raw), len(positions))
		}
		normals = toVec3(raw)
	}

	var indices []uint32
	if gp.Indices != nil {
		indices, err = b.parser.ReadIndices(*gp.Indices)
		if err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
		for _, i := range indices {
			if int(i) >= len(positions) {
				return nil, fmt.Errorf("index %d out of range of %d vertices", i, len(positions))
			}
		}
	}
	return scene.NewGeometry(positions, normals, indices), nil
}

func toVec3(raw [][3]float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(raw))
	for i, v := range raw {
		out[i] = mgl32.Vec3(v)
	}
	return out
}
