package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// AxesSize is the length of each axis of the helper drawn when SceneView.ShowAxes is set.
const AxesSize = 10

var (
	axesOnce      sync.Once
	axesDrawables []scene.Drawable
)

// AxesDrawables returns the world axes helper: three thin bars from the origin along +X, +Y and
// +Z in red, green and blue. The result is shared and must not be modified.
//
// Returns:
//   - []scene.Drawable: the helper drawables
func AxesDrawables() []scene.Drawable {
	axesOnce.Do(func() {
		const thickness = AxesSize * 0.005
		axes := []struct {
			name  string
			max   mgl32.Vec3
			color [3]float32
		}{
			{"axis-x", mgl32.Vec3{AxesSize, thickness, thickness}, [3]float32{1, 0, 0}},
			{"axis-y", mgl32.Vec3{thickness, AxesSize, thickness}, [3]float32{0, 1, 0}},
			{"axis-z", mgl32.Vec3{thickness, thickness, AxesSize}, [3]float32{0, 0, 1}},
		}
		for _, a := range axes {
			m := material.NewMaterial(
				material.WithName(a.name),
				material.WithBaseColor([4]float32{0, 0, 0, 1}),
				material.WithEmissive(a.color),
				material.WithMetalness(0),
			)
			axesDrawables = append(axesDrawables, scene.Drawable{
				NodeID:   a.name,
				World:    mgl32.Ident4(),
				Geometry: boxGeometry(mgl32.Vec3{-thickness, -thickness, -thickness}, a.max),
				Material: m,
			})
		}
	})
	return axesDrawables
}

// boxGeometry builds an axis-aligned box without normals; the scene shader falls back to face
// normals.
func boxGeometry(lo, hi mgl32.Vec3) *scene.Geometry {
	positions := make([]mgl32.Vec3, 8)
	for i := range positions {
		p := lo
		if i&1 != 0 {
			p[0] = hi[0]
		}
		if i&2 != 0 {
			p[1] = hi[1]
		}
		if i&4 != 0 {
			p[2] = hi[2]
		}
		positions[i] = p
	}
	indices := []uint32{
		0, 2, 3, 0, 3, 1, // -z
		4, 5, 7, 4, 7, 6, // +z
		0, 1, 5, 0, 5, 4, // -y
		2, 6, 7, 2, 7, 3, // +y
		0, 4, 6, 0, 6, 2, // -x
		1, 3, 7, 1, 7, 5, // +x
	}
	return scene.NewGeometry(positions, nil, indices)
}
