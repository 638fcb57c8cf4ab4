package scene

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

var (
	// ErrCycle is returned when adding a node would make it its own ancestor.
	ErrCycle = errors.New("scene: node cannot be added below itself")

	// ErrNilNode is returned when a nil child is added.
	ErrNilNode = errors.New("scene: nil node")
)

// Node is one element of the scene tree. A node has at most one parent, so the graph stays a
// tree. The local transform is either the TRS triple or, when Matrix is set, that matrix.
//
// Nodes are not safe for concurrent mutation; the owning scene serializes access.
type Node struct {
	ID   uuid.UUID
	Name string

	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Matrix   *mgl32.Mat4

	Mesh *Mesh

	CastShadow    bool
	ReceiveShadow bool
	Visible       bool

	parent   *Node
	children []*Node
}

// NewNode creates a visible node with an identity transform.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Node: the new node
func NewNode(name string) *Node {
	return &Node{
		ID:       uuid.New(),
		Name:     name,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		Visible:  true,
	}
}

// NewMeshNode creates a visible node carrying the given mesh.
//
// Parameters:
//   - name: the node name
//   - mesh: the mesh to attach
//
// Returns:
//   - *Node: the new node
func NewMeshNode(name string, mesh *Mesh) *Node {
	n := NewNode(name)
	n.Mesh = mesh
	return n
}

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the node's child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Add attaches child below n, detaching it from any previous parent first.
//
// Parameters:
//   - child: the node to attach
//
// Returns:
//   - error: ErrNilNode for a nil child, ErrCycle if child is n or one of its ancestors
func (n *Node) Add(child *Node) error {
	if child == nil {
		return ErrNilNode
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return ErrCycle
		}
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// Remove detaches child from n. Removing a node that is not a direct child is a no-op.
//
// Parameters:
//   - child: the node to detach
//
// Returns:
//   - bool: true if the child was detached
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Clear detaches every child of n.
func (n *Node) Clear() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

// Traverse calls fn for n and every descendant in pre-order, parents before their children.
//
// Parameters:
//   - fn: the visitor
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// LocalMatrix returns the node's transform relative to its parent.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	t := mgl32.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	r := n.Rotation.Normalize().Mat4()
	s := mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	return t.Mul4(r).Mul4(s)
}

// WorldMatrix returns the node's transform relative to the tree root.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}
