package renderer

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultClearColor is the background of the geometry pass.
var DefaultClearColor = [4]float32{0.1, 0.1, 0.1, 1}

// SceneView is everything a geometry pass needs, captured once per frame.
type SceneView struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	CameraPosition mgl32.Vec3
	Jitter         mgl32.Vec2

	Drawables  []scene.Drawable
	Lights     light.GPULights
	ClearColor [4]float32
	ShowAxes   bool
}

// NewSceneView captures the camera matrices, drawables and lights of a scene.
//
// Parameters:
//   - cam: the camera to render from
//   - s: the scene to render
//
// Returns:
//   - SceneView: the captured view with no jitter
func NewSceneView(cam camera.Camera, s scene.Scene) SceneView {
	v := SceneView{
		View:       mgl32.Ident4(),
		Projection: mgl32.Ident4(),
		ClearColor: DefaultClearColor,
	}
	if cam != nil {
		v.View = cam.ViewMatrix()
		v.Projection = cam.ProjectionMatrix()
		v.CameraPosition = cam.Position()
	}
	if s != nil {
		v.Drawables = s.Drawables()
		v.Lights = light.NewGPULights(s.Lights())
		v.ShowAxes = s.AxesVisible()
	}
	return v
}

// WithJitter returns a copy of the view whose projection is offset by jitter in clip space.
//
// Parameters:
//   - jitter: the clip-space offset
//
// Returns:
//   - SceneView: the jittered view
func (v SceneView) WithJitter(jitter mgl32.Vec2) SceneView {
	v.Jitter = jitter
	return v
}

// CameraUniform packs the view's camera for upload, jitter included.
//
// Returns:
//   - camera.GPUCameraUniform: the packed uniform
func (v SceneView) CameraUniform() camera.GPUCameraUniform {
	return camera.GPUCameraUniformFromMatrices(v.View, v.Projection, v.CameraPosition, v.Jitter)
}
