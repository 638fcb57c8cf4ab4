package scene

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/material"
)

// NormalizeMaterials walks root in pre-order, turns on shadow casting for every mesh node, sets
// its shadow receiving flag and normalizes each of its materials against the environment.
//
// Parameters:
//   - root: the freshly loaded fragment
//   - env: the current environment map, may be nil
//   - intensity: the scene environment intensity
//   - receiveShadow: the receive-shadow flag to apply
//
// Returns:
//   - int: the number of materials normalized
func NormalizeMaterials(root *Node, env *environment.Map, intensity float32, receiveShadow bool) int {
	count := 0
	if root == nil {
		return count
	}
	root.Traverse(func(n *Node) {
		if n.Mesh == nil {
			return
		}
		n.CastShadow = true
		n.ReceiveShadow = receiveShadow
		for _, m := range n.Mesh.Materials {
			if m == nil {
				continue
			}
			material.Normalize(m, env, intensity)
			count++
		}
	})
	return count
}

// ForEachMaterial calls fn for every material below root. A material shared by several meshes is
// visited once.
//
// Parameters:
//   - root: the subtree to sweep
//   - fn: the visitor
func ForEachMaterial(root *Node, fn func(*material.Material)) {
	if root == nil {
		return
	}
	seen := make(map[*material.Material]struct{})
	root.Traverse(func(n *Node) {
		if n.Mesh == nil {
			return
		}
		for _, m := range n.Mesh.Materials {
			if m == nil {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			fn(m)
		}
	})
}
