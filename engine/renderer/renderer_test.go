package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadless(t *testing.T, options ...RendererBuilderOption) (Renderer, *HeadlessBackend) {
	t.Helper()
	r, err := NewRenderer(BackendTypeHeadless, nil, options...)
	require.NoError(t, err)
	b, ok := r.Backend().(*HeadlessBackend)
	require.True(t, ok)
	return r, b
}

func triangle() *scene.Geometry {
	return scene.NewGeometry([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, nil, []uint32{0, 1, 2})
}

func TestNewRendererHeadlessConfiguresScaledSurface(t *testing.T) {
	r, b := newHeadless(t, WithSize(800, 600), WithPixelRatio(2))

	w, h := r.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.Equal(t, float32(2), r.PixelRatio())
	assert.Equal(t, BackendTypeHeadless, r.BackendType())

	cfg := b.OpsOfKind(OpConfigureSurface)
	require.Len(t, cfg, 1)
	assert.Equal(t, 1600, cfg[0].Width)
	assert.Equal(t, 1200, cfg[0].Height)
}

func TestNewRendererWGPUWithoutSurfaceFails(t *testing.T) {
	_, err := NewRenderer(BackendTypeWGPU, nil)
	assert.Error(t, err)
}

func TestSetPixelRatioClampsNonPositive(t *testing.T) {
	r, b := newHeadless(t, WithSize(100, 50), WithPixelRatio(2))
	r.SetPixelRatio(-3)
	assert.Equal(t, float32(1), r.PixelRatio())

	cfg := b.OpsOfKind(OpConfigureSurface)
	last := cfg[len(cfg)-1]
	assert.Equal(t, 100, last.Width)
	assert.Equal(t, 50, last.Height)
}

func TestResizeReconfigures(t *testing.T) {
	r, b := newHeadless(t, WithSize(100, 100), WithPixelRatio(1.5))
	r.Resize(200, 0)

	w, h := r.Size()
	assert.Equal(t, 200, w)
	assert.Equal(t, 1, h)
	cfg := b.OpsOfKind(OpConfigureSurface)
	last := cfg[len(cfg)-1]
	assert.Equal(t, 300, last.Width)
	assert.Equal(t, 1, last.Height)
}

func TestScaledSize(t *testing.T) {
	w, h := ScaledSize(640, 480, 1.5)
	assert.Equal(t, 960, w)
	assert.Equal(t, 720, h)

	w, h = ScaledSize(0, 0, 2)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestFrameBracketing(t *testing.T) {
	r, b := newHeadless(t, WithSize(64, 64))
	target, err := r.CreateRenderTarget("read", 64, 64)
	require.NoError(t, err)

	assert.ErrorIs(t, r.DrawScene(target, SceneView{}), ErrNoFrame)
	assert.ErrorIs(t, r.RunEffect(NewEffectPass("copy", EffectCopy), target, nil), ErrNoFrame)

	require.NoError(t, r.BeginFrame())
	assert.Error(t, r.BeginFrame())
	require.NoError(t, r.DrawScene(target, SceneView{}))
	require.NoError(t, r.RunEffect(NewEffectPass("output", EffectOutput), target, nil))
	r.EndFrame()

	var kinds []OpKind
	for _, op := range b.Ops() {
		if op.Kind != OpConfigureSurface {
			kinds = append(kinds, op.Kind)
		}
	}
	assert.Equal(t, []OpKind{OpBeginFrame, OpDrawScene, OpRunEffect, OpEndFrame, OpPresent}, kinds)

	effect := b.OpsOfKind(OpRunEffect)[0]
	assert.Equal(t, "read", effect.Input)
	assert.Equal(t, ScreenLabel, effect.Target)
	assert.Equal(t, EffectOutput, effect.Effect.Mode)
}

func TestReleasedTargetIsRejected(t *testing.T) {
	r, b := newHeadless(t, WithSize(32, 32))
	target, err := r.CreateRenderTarget("gone", 32, 32)
	require.NoError(t, err)
	target.Release()
	target.Release()
	assert.True(t, target.Released())
	assert.Equal(t, 2, b.ReleaseCount("gone"))
	assert.Error(t, target.Resize(10, 10))

	require.NoError(t, r.BeginFrame())
	assert.Error(t, r.DrawScene(target, SceneView{}))
	r.EndFrame()
}

func TestRenderTargetResize(t *testing.T) {
	r, _ := newHeadless(t)
	target, err := r.CreateRenderTarget("rt", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, target.Width())
	assert.Equal(t, 1, target.Height())

	require.NoError(t, target.Resize(320, 240))
	assert.Equal(t, 320, target.Width())
	assert.Equal(t, 240, target.Height())
}

func TestReleaseIsIdempotent(t *testing.T) {
	r, b := newHeadless(t)
	r.Release()
	r.Release()
	assert.True(t, r.Released())
	assert.True(t, b.Released())

	assert.ErrorIs(t, r.BeginFrame(), ErrReleased)
	_, err := r.CreateRenderTarget("late", 1, 1)
	assert.ErrorIs(t, err, ErrReleased)
	assert.ErrorIs(t, r.UploadEnvironment(nil), ErrReleased)
}

func TestUploadEnvironment(t *testing.T) {
	r, b := newHeadless(t)
	m := environment.NewMap("studio.hdr", environment.KindHDR, environment.Level{Width: 4, Height: 2, Pixels: make([]float32, 4*2*3)})

	require.NoError(t, r.UploadEnvironment(m))
	require.NoError(t, r.UploadEnvironment(nil))
	m.Release()
	assert.Error(t, r.UploadEnvironment(m))

	ups := b.OpsOfKind(OpUploadEnvironment)
	require.Len(t, ups, 2)
	assert.Equal(t, "studio.hdr", ups[0].Environment)
	assert.Equal(t, 4, ups[0].Width)
	assert.Equal(t, "", ups[1].Environment)
}

func TestPresentModeForwarded(t *testing.T) {
	r, b := newHeadless(t, WithPresentMode(PresentModeUncapped))
	assert.Equal(t, PresentModeUncapped, b.PresentMode())
	r.SetPresentMode(PresentModeVSync)
	assert.Equal(t, PresentModeVSync, b.PresentMode())
}

func TestNewSceneViewCapturesScene(t *testing.T) {
	s := scene.NewScene()
	require.NoError(t, s.AddModel(scene.NewMeshNode("tri", scene.NewMesh(triangle(), material.NewMaterial()))))
	s.SetAxesVisible(true)

	ctrl := camera.NewCameraController()
	cam := camera.NewCamera(camera.WithAspect(1), camera.WithController(ctrl))
	ctrl.Place(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{})
	cam.Update()

	v := NewSceneView(cam, s)
	assert.Len(t, v.Drawables, 1)
	assert.True(t, v.ShowAxes)
	assert.Equal(t, DefaultClearColor, v.ClearColor)
	assert.Equal(t, cam.ViewMatrix(), v.View)
	assert.Equal(t, cam.Position(), v.CameraPosition)
}

func TestSceneViewJitter(t *testing.T) {
	v := SceneView{View: mgl32.Ident4(), Projection: mgl32.Perspective(1, 1, 0.1, 100)}
	jittered := v.WithJitter(mgl32.Vec2{0.01, -0.02})

	assert.Equal(t, mgl32.Vec2{}, v.Jitter)
	plain := v.CameraUniform()
	shifted := jittered.CameraUniform()
	assert.NotEqual(t, plain.ViewProj, shifted.ViewProj)
	assert.Equal(t, plain.View, shifted.View)
}

func TestDrawSceneRecordsJitterAndCount(t *testing.T) {
	r, b := newHeadless(t)
	view := SceneView{Drawables: []scene.Drawable{{Geometry: triangle()}, {Geometry: triangle()}}}

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.DrawScene(nil, view.WithJitter(mgl32.Vec2{0.5, 0.25})))
	r.EndFrame()

	draws := b.OpsOfKind(OpDrawScene)
	require.Len(t, draws, 1)
	assert.Equal(t, 2, draws[0].Drawables)
	assert.Equal(t, mgl32.Vec2{0.5, 0.25}, draws[0].Jitter)
	assert.Equal(t, ScreenLabel, draws[0].Target)
}

func TestAxesDrawables(t *testing.T) {
	axes := AxesDrawables()
	require.Len(t, axes, 3)
	want := [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, d := range axes {
		assert.Equal(t, want[i], d.Material.Emissive)
		box := d.Geometry.BoundingBox()
		assert.InDelta(t, AxesSize, box.Max[i], 1e-5)
	}
}

func TestOrderDrawablesPutsTransparentLastFarFirst(t *testing.T) {
	near := mgl32.Translate3D(0, 0, 2)
	far := mgl32.Translate3D(0, 0, -20)
	glassNear := material.NewMaterial(material.WithName("near"), material.WithTransparency(0.5))
	glassFar := material.NewMaterial(material.WithName("far"), material.WithTransparency(0.5))
	solid := material.NewMaterial(material.WithName("solid"))

	view := SceneView{
		View: mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Drawables: []scene.Drawable{
			{World: near, Geometry: triangle(), Material: glassNear},
			{World: mgl32.Ident4(), Geometry: triangle(), Material: solid},
			{World: far, Geometry: triangle(), Material: glassFar},
			{World: mgl32.Ident4(), Geometry: nil, Material: solid},
			{World: mgl32.Ident4(), Geometry: triangle()},
		},
	}

	ordered := orderDrawables(view)
	require.Len(t, ordered, 4)
	assert.Equal(t, "solid", ordered[0].Material.Name)
	assert.Equal(t, "default", ordered[1].Material.Name)
	assert.Equal(t, "far", ordered[2].Material.Name)
	assert.Equal(t, "near", ordered[3].Material.Name)
}

func TestGPUStructSizes(t *testing.T) {
	params := NewGPUEffectParams(EffectOutput)
	assert.Equal(t, 64, params.Size())
	assert.Len(t, params.Marshal(), 64)

	draw := GPUDrawUniform{Model: mgl32.Ident4()}
	assert.Equal(t, 112, draw.Size())
	assert.Len(t, draw.Marshal(), 112)
	assert.LessOrEqual(t, draw.Size(), drawUniformStride)
}
