package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// targetFormat is the color format of every offscreen target.
	targetFormat = wgpu.TextureFormatRGBA16Float

	// cameraUniformSize, lightsUniformSize and effectUniformSize are the bound ranges of the
	// dynamic-offset uniforms.
	cameraUniformSize = 144
	lightsUniformSize = 48
	drawUniformSize   = 112
	effectUniformSize = 64

	// uniformStride is the dynamic-offset slot size; WebGPU requires 256-byte alignment.
	uniformStride = drawUniformStride

	// cacheSweepInterval is how many frames a mesh or material may go unused before its GPU
	// state is dropped.
	cacheSweepInterval = 120
)

// scenePipelineKey selects a scene pipeline variant.
type scenePipelineKey struct {
	format      wgpu.TextureFormat
	transparent bool
}

// gpuMesh is the uploaded form of a scene.Geometry.
type gpuMesh struct {
	positions  *wgpu.Buffer
	normals    *wgpu.Buffer
	indices    *wgpu.Buffer
	indexCount uint32
	lastUsed   uint64
}

func (m *gpuMesh) release() {
	m.positions.Release()
	m.normals.Release()
	m.indices.Release()
}

// gpuMaterial caches the packed uniform of a material between updates.
type gpuMaterial struct {
	packed   material.GPUMaterial
	lastUsed uint64
}

// depthBuffer is a depth attachment shared by every target of one size.
type depthBuffer struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

// uniformRing is a growable dynamic-offset uniform buffer with a bind group over it. Slots are
// handed out in order within a frame and recycled after submit.
type uniformRing struct {
	label    string
	size     uint64
	capacity int
	next     int
	buffer   *wgpu.Buffer
	group    *wgpu.BindGroup
}

type wgpuRendererBackendImpl struct {
	mu  *sync.Mutex
	log logger.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	surfaceSRGB   bool
	presentMode   wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	width         int
	height        int
	configured    bool

	sceneModule   *wgpu.ShaderModule
	effectModule  *wgpu.ShaderModule
	globalsLayout *wgpu.BindGroupLayout
	drawLayout    *wgpu.BindGroupLayout
	inputLayout   *wgpu.BindGroupLayout
	paramsLayout  *wgpu.BindGroupLayout
	sceneLayout   *wgpu.PipelineLayout
	effectLayout  *wgpu.PipelineLayout

	scenePipelines  map[scenePipelineKey]*wgpu.RenderPipeline
	effectPipelines map[wgpu.TextureFormat]*wgpu.RenderPipeline

	inputSampler *wgpu.Sampler
	envSampler   *wgpu.Sampler
	envTexture   *wgpu.Texture
	envView      *wgpu.TextureView
	lightsBuffer *wgpu.Buffer

	cameras *uniformRing
	draws   *uniformRing
	effects *uniformRing

	depth     map[[2]int]*depthBuffer
	meshes    map[*scene.Geometry]*gpuMesh
	materials map[*material.Material]*gpuMaterial

	// released after the current frame's commands are submitted
	retired []func()

	// Frame state for batched rendering across multiple passes
	frame        uint64
	frameEncoder *wgpu.CommandEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, log logger.Logger) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:              &sync.Mutex{},
		log:             log,
		instance:        wgpu.CreateInstance(nil),
		presentMode:     wgpu.PresentModeImmediate,
		scenePipelines:  make(map[scenePipelineKey]*wgpu.RenderPipeline),
		effectPipelines: make(map[wgpu.TextureFormat]*wgpu.RenderPipeline),
		depth:           make(map[[2]int]*depthBuffer),
		meshes:          make(map[*scene.Geometry]*gpuMesh),
		materials:       make(map[*material.Material]*gpuMaterial),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return nil, errors.New("surface reports no formats")
	}
	b.surfaceFormat = pickSurfaceFormat(capabilities.Formats)
	b.surfaceSRGB = isSRGB(b.surfaceFormat)

	if err := b.initShared(); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// pickSurfaceFormat prefers a linear 8-bit format so the output pass controls the encoding.
func pickSurfaceFormat(formats []wgpu.TextureFormat) wgpu.TextureFormat {
	for _, f := range formats {
		if f == wgpu.TextureFormatBGRA8Unorm || f == wgpu.TextureFormatRGBA8Unorm {
			return f
		}
	}
	return formats[0]
}

func isSRGB(f wgpu.TextureFormat) bool {
	return f == wgpu.TextureFormatBGRA8UnormSrgb || f == wgpu.TextureFormatRGBA8UnormSrgb
}

// initShared creates the shader modules, layouts, samplers and uniform buffers every pass uses.
func (b *wgpuRendererBackendImpl) initShared() error {
	var err error
	b.sceneModule, err = b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Scene Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: SceneShaderSource},
	})
	if err != nil {
		return fmt.Errorf("failed to compile scene shader: %w", err)
	}
	b.effectModule, err = b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Effect Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: EffectShaderSource},
	})
	if err != nil {
		return fmt.Errorf("failed to compile effect shader: %w", err)
	}

	vertexFragment := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment

	var globals wgpu.BindGroupLayoutDescriptor
	globals.Label = "Scene Globals Layout"
	globals.Entries = make([]wgpu.BindGroupLayoutEntry, 4)
	globals.Entries[0].Binding = 0
	globals.Entries[0].Visibility = vertexFragment
	globals.Entries[0].Buffer.Type = wgpu.BufferBindingTypeUniform
	globals.Entries[0].Buffer.HasDynamicOffset = true
	globals.Entries[0].Buffer.MinBindingSize = cameraUniformSize
	globals.Entries[1].Binding = 1
	globals.Entries[1].Visibility = wgpu.ShaderStageFragment
	globals.Entries[1].Buffer.Type = wgpu.BufferBindingTypeUniform
	globals.Entries[1].Buffer.MinBindingSize = lightsUniformSize
	globals.Entries[2].Binding = 2
	globals.Entries[2].Visibility = wgpu.ShaderStageFragment
	globals.Entries[2].Texture.SampleType = wgpu.TextureSampleTypeFloat
	globals.Entries[2].Texture.ViewDimension = wgpu.TextureViewDimension2D
	globals.Entries[3].Binding = 3
	globals.Entries[3].Visibility = wgpu.ShaderStageFragment
	globals.Entries[3].Sampler.Type = wgpu.SamplerBindingTypeFiltering
	if b.globalsLayout, err = b.device.CreateBindGroupLayout(&globals); err != nil {
		return fmt.Errorf("failed to create scene globals layout: %w", err)
	}

	b.drawLayout, err = b.dynamicUniformLayout("Scene Draw Layout", vertexFragment, drawUniformSize)
	if err != nil {
		return err
	}
	b.paramsLayout, err = b.dynamicUniformLayout("Effect Params Layout", wgpu.ShaderStageFragment, effectUniformSize)
	if err != nil {
		return err
	}

	var input wgpu.BindGroupLayoutDescriptor
	input.Label = "Effect Input Layout"
	input.Entries = make([]wgpu.BindGroupLayoutEntry, 2)
	input.Entries[0].Binding = 0
	input.Entries[0].Visibility = wgpu.ShaderStageFragment
	input.Entries[0].Texture.SampleType = wgpu.TextureSampleTypeFloat
	input.Entries[0].Texture.ViewDimension = wgpu.TextureViewDimension2D
	input.Entries[1].Binding = 1
	input.Entries[1].Visibility = wgpu.ShaderStageFragment
	input.Entries[1].Sampler.Type = wgpu.SamplerBindingTypeFiltering
	if b.inputLayout, err = b.device.CreateBindGroupLayout(&input); err != nil {
		return fmt.Errorf("failed to create effect input layout: %w", err)
	}

	b.sceneLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Scene Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.globalsLayout, b.drawLayout},
	})
	if err != nil {
		return fmt.Errorf("failed to create scene pipeline layout: %w", err)
	}
	b.effectLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Effect Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.inputLayout, b.paramsLayout},
	})
	if err != nil {
		return fmt.Errorf("failed to create effect pipeline layout: %w", err)
	}

	b.inputSampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Effect Input Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create input sampler: %w", err)
	}
	b.envSampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Environment Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create environment sampler: %w", err)
	}

	b.lightsBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Lights Buffer",
		Size:  lightsUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create lights buffer: %w", err)
	}

	if err := b.uploadEnvironmentLevels("Environment Placeholder", []environment.Level{{Width: 1, Height: 1, Pixels: make([]float32, 3)}}); err != nil {
		return err
	}

	b.draws = &uniformRing{label: "Draw Uniforms", size: drawUniformSize}
	b.effects = &uniformRing{label: "Effect Uniforms", size: effectUniformSize}
	b.cameras = &uniformRing{label: "Camera Uniforms", size: cameraUniformSize}
	if err := b.ensureRing(b.draws, 64, b.drawLayout); err != nil {
		return err
	}
	if err := b.ensureRing(b.effects, 16, b.paramsLayout); err != nil {
		return err
	}
	return b.ensureRing(b.cameras, 4, b.globalsLayout)
}

func (b *wgpuRendererBackendImpl) dynamicUniformLayout(label string, visibility wgpu.ShaderStage, size uint64) (*wgpu.BindGroupLayout, error) {
	var desc wgpu.BindGroupLayoutDescriptor
	desc.Label = label
	desc.Entries = make([]wgpu.BindGroupLayoutEntry, 1)
	desc.Entries[0].Binding = 0
	desc.Entries[0].Visibility = visibility
	desc.Entries[0].Buffer.Type = wgpu.BufferBindingTypeUniform
	desc.Entries[0].Buffer.HasDynamicOffset = true
	desc.Entries[0].Buffer.MinBindingSize = size
	layout, err := b.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", label, err)
	}
	return layout, nil
}

// ensureRing grows ring so that `need` more slots fit this frame. Buffers it replaces are retired
// until the frame is submitted since earlier passes may still reference them.
func (b *wgpuRendererBackendImpl) ensureRing(ring *uniformRing, need int, layout *wgpu.BindGroupLayout) error {
	if ring.buffer != nil && ring.next+need <= ring.capacity {
		return nil
	}
	capacity := max(ring.capacity*2, ring.next+need, 4)
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: ring.label,
		Size:  uint64(capacity * uniformStride),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to grow %s: %w", ring.label, err)
	}

	var entries []wgpu.BindGroupEntry
	if ring == b.cameras {
		entries = b.globalsEntries(buf)
	} else {
		entries = []wgpu.BindGroupEntry{{Binding: 0, Buffer: buf, Offset: 0, Size: ring.size}}
	}
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   ring.label + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		buf.Release()
		return fmt.Errorf("failed to bind %s: %w", ring.label, err)
	}

	if old, oldGroup := ring.buffer, ring.group; old != nil {
		b.retire(func() {
			oldGroup.Release()
			old.Release()
		})
	}
	ring.buffer, ring.group, ring.capacity = buf, group, capacity
	b.log.Debugf("%s grown to %d slots", ring.label, capacity)
	return nil
}

func (b *wgpuRendererBackendImpl) globalsEntries(cameras *wgpu.Buffer) []wgpu.BindGroupEntry {
	return []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: cameras, Offset: 0, Size: cameraUniformSize},
		{Binding: 1, Buffer: b.lightsBuffer, Offset: 0, Size: lightsUniformSize},
		{Binding: 2, TextureView: b.envView},
		{Binding: 3, Sampler: b.envSampler},
	}
}

// rebindGlobals rebuilds the scene globals group after the environment texture changes.
func (b *wgpuRendererBackendImpl) rebindGlobals() error {
	if b.cameras == nil || b.cameras.buffer == nil {
		return nil
	}
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   b.cameras.label + " Bind Group",
		Layout:  b.globalsLayout,
		Entries: b.globalsEntries(b.cameras.buffer),
	})
	if err != nil {
		return fmt.Errorf("failed to rebind scene globals: %w", err)
	}
	old := b.cameras.group
	b.retire(old.Release)
	b.cameras.group = group
	return nil
}

func (b *wgpuRendererBackendImpl) retire(fn func()) {
	if b.frameEncoder == nil {
		fn()
		return
	}
	b.retired = append(b.retired, fn)
}

func (b *wgpuRendererBackendImpl) flushRetired() {
	for _, fn := range b.retired {
		fn()
	}
	b.retired = nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return
	}
	if b.configured && width == b.width && height == b.height {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.width, b.height = width, height
	b.configured = true

	// depth buffers are recreated lazily at the sizes still in use
	for size, d := range b.depth {
		b.retire(func() {
			d.view.Release()
			d.texture.Release()
		})
		delete(b.depth, size)
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
	b.configured = false
}

func (b *wgpuRendererBackendImpl) CreateRenderTarget(label string, width, height int) (RenderTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := &wgpuRenderTarget{mu: &sync.Mutex{}, backend: b, label: label}
	if err := t.allocate(width, height); err != nil {
		return nil, err
	}
	return t, nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A held surface texture means the previous frame was never presented; acquiring again
	// fails inside wgpu-native with "Surface image is already acquired".
	if b.frameSurface != nil {
		return errors.New("previous frame surface not yet presented")
	}
	if !b.configured {
		return errors.New("surface not configured")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frame++
	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.cameras.next, b.draws.next, b.effects.next = 0, 0, 0
	return nil
}

// colorAttachment resolves a target to its view, size and format; nil is the swapchain.
func (b *wgpuRendererBackendImpl) colorAttachment(t RenderTarget) (*wgpu.TextureView, int, int, wgpu.TextureFormat, error) {
	if t == nil {
		return b.frameView, b.width, b.height, b.surfaceFormat, nil
	}
	wt, ok := t.(*wgpuRenderTarget)
	if !ok {
		return nil, 0, 0, 0, fmt.Errorf("render target %q was not created by this backend", t.Label())
	}
	if wt.Released() {
		return nil, 0, 0, 0, fmt.Errorf("render target %q was released", wt.label)
	}
	return wt.view, wt.width, wt.height, targetFormat, nil
}

func (b *wgpuRendererBackendImpl) DrawScene(target RenderTarget, view SceneView) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return ErrNoFrame
	}
	colorView, width, height, format, err := b.colorAttachment(target)
	if err != nil {
		return err
	}
	depth, err := b.depthFor(width, height)
	if err != nil {
		return err
	}

	drawables := orderDrawables(view)

	if err := b.ensureRing(b.cameras, 1, b.globalsLayout); err != nil {
		return err
	}
	if err := b.ensureRing(b.draws, len(drawables), b.drawLayout); err != nil {
		return err
	}

	camera := view.CameraUniform()
	cameraOffset := uint32(b.cameras.next * uniformStride)
	b.cameras.next++
	b.queue.WriteBuffer(b.cameras.buffer, uint64(cameraOffset), camera.Marshal())
	lights := view.Lights
	b.queue.WriteBuffer(b.lightsBuffer, 0, lights.Marshal())

	pass := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    colorView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(view.ClearColor[0]),
					G: float64(view.ClearColor[1]),
					B: float64(view.ClearColor[2]),
					A: float64(view.ClearColor[3]),
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	defer pass.Release()

	var current *wgpu.RenderPipeline
	for _, d := range drawables {
		mesh, err := b.meshFor(d.Geometry)
		if err != nil {
			pass.End()
			return err
		}
		if mesh == nil {
			continue
		}

		p, err := b.scenePipeline(scenePipelineKey{format: format, transparent: d.Material.Transparent})
		if err != nil {
			pass.End()
			return err
		}
		if p != current {
			pass.SetPipeline(p)
			current = p
		}

		uniform := GPUDrawUniform{Model: d.World, Material: b.materialFor(d.Material)}
		drawOffset := uint32(b.draws.next * uniformStride)
		b.draws.next++
		b.queue.WriteBuffer(b.draws.buffer, uint64(drawOffset), uniform.Marshal())

		pass.SetBindGroup(0, b.cameras.group, []uint32{cameraOffset})
		pass.SetBindGroup(1, b.draws.group, []uint32{drawOffset})
		pass.SetVertexBuffer(0, mesh.positions, 0, wgpu.WholeSize)
		pass.SetVertexBuffer(1, mesh.normals, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(mesh.indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(mesh.indexCount, 1, 0, 0, 0)
	}
	pass.End()
	return nil
}

// orderDrawables returns the view's drawables plus the axes helper, opaque first, then
// transparent from far to near. Drawables without a material get a default one.
func orderDrawables(view SceneView) []scene.Drawable {
	all := make([]scene.Drawable, 0, len(view.Drawables)+3)
	all = append(all, view.Drawables...)
	if view.ShowAxes {
		all = append(all, AxesDrawables()...)
	}
	kept := all[:0]
	for _, d := range all {
		if d.Geometry == nil {
			continue
		}
		if d.Material == nil {
			d.Material = defaultMaterial
		}
		kept = append(kept, d)
	}
	all = kept

	depthOf := func(d scene.Drawable) float32 {
		center := d.Geometry.BoundingBox().Center()
		p := view.View.Mul4x1(d.World.Mul4x1(center.Vec4(1)))
		return p.Z()
	}
	sort.SliceStable(all, func(i, j int) bool {
		ti, tj := all[i].Material.Transparent, all[j].Material.Transparent
		if ti != tj {
			return !ti
		}
		if !ti {
			return false
		}
		// view space looks down -Z; more negative is farther
		return depthOf(all[i]) < depthOf(all[j])
	})
	return all
}

var defaultMaterial = material.NewMaterial(material.WithName("default"), material.WithMetalness(0))

func (b *wgpuRendererBackendImpl) materialFor(m *material.Material) material.GPUMaterial {
	cached, ok := b.materials[m]
	if !ok {
		cached = &gpuMaterial{}
		b.materials[m] = cached
	}
	if m.ConsumeUpdate() || !ok {
		cached.packed = material.NewGPUMaterial(m)
	}
	cached.lastUsed = b.frame
	return cached.packed
}

// meshFor uploads g on first use. A geometry with no vertices yields nil.
func (b *wgpuRendererBackendImpl) meshFor(g *scene.Geometry) (*gpuMesh, error) {
	if g == nil || g.VertexCount() == 0 {
		return nil, nil
	}
	if m, ok := b.meshes[g]; ok {
		m.lastUsed = b.frame
		return m, nil
	}

	normals := g.Normals
	if len(normals) != len(g.Positions) {
		// zero normals make the shader fall back to face normals
		normals = make([]mgl32.Vec3, len(g.Positions))
	}
	indices := g.Indices
	if len(indices) == 0 {
		indices = make([]uint32, len(g.Positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	positionBuf, err := b.vertexBuffer("Positions", common.SliceToBytes(g.Positions), wgpu.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	normalBuf, err := b.vertexBuffer("Normals", common.SliceToBytes(normals), wgpu.BufferUsageVertex)
	if err != nil {
		positionBuf.Release()
		return nil, err
	}
	indexBuf, err := b.vertexBuffer("Indices", common.SliceToBytes(indices), wgpu.BufferUsageIndex)
	if err != nil {
		positionBuf.Release()
		normalBuf.Release()
		return nil, err
	}

	m := &gpuMesh{
		positions:  positionBuf,
		normals:    normalBuf,
		indices:    indexBuf,
		indexCount: uint32(len(indices)),
		lastUsed:   b.frame,
	}
	b.meshes[g] = m
	return m, nil
}

func (b *wgpuRendererBackendImpl) vertexBuffer(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	// WriteBuffer sizes must be a multiple of 4
	size := (uint64(len(data)) + 3) &^ 3
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Buffer",
		Size:  size,
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s buffer: %w", label, err)
	}
	if uint64(len(data)) != size {
		data = append(data, make([]byte, size-uint64(len(data)))...)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuRendererBackendImpl) depthFor(width, height int) (*depthBuffer, error) {
	key := [2]int{width, height}
	if d, ok := b.depth[key]; ok {
		return d, nil
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create depth texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create depth view: %w", err)
	}
	d := &depthBuffer{texture: tex, view: view}
	b.depth[key] = d
	return d, nil
}

func (b *wgpuRendererBackendImpl) scenePipeline(key scenePipelineKey) (*wgpu.RenderPipeline, error) {
	if p, ok := b.scenePipelines[key]; ok {
		return p, nil
	}

	target := wgpu.ColorTargetState{
		Format:    key.format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if key.transparent {
		blend := wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		}
		target.Blend = &wgpu.BlendState{Color: blend, Alpha: blend}
	}

	label := "Scene Opaque"
	if key.transparent {
		label = "Scene Transparent"
	}
	p, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: b.sceneLayout,
		Vertex: wgpu.VertexState{
			Module:     b.sceneModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 12,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: 12,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 1},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     b.sceneModule,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: !key.transparent,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s pipeline: %w", label, err)
	}
	b.scenePipelines[key] = p
	b.log.Debugf("created %s pipeline for format %v", label, key.format)
	return p, nil
}

func (b *wgpuRendererBackendImpl) effectPipeline(format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	if p, ok := b.effectPipelines[format]; ok {
		return p, nil
	}
	p, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Effect Render Pipeline",
		Layout: b.effectLayout,
		Vertex: wgpu.VertexState{
			Module:     b.effectModule,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     b.effectModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{Format: format, WriteMask: wgpu.ColorWriteMaskAll},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create effect pipeline: %w", err)
	}
	b.effectPipelines[format] = p
	b.log.Debugf("created effect pipeline for format %v", format)
	return p, nil
}

func (b *wgpuRendererBackendImpl) RunEffect(effect EffectPass, in, out RenderTarget) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return ErrNoFrame
	}
	if in == nil {
		return fmt.Errorf("effect %q has no input", effect.Name)
	}
	input, ok := in.(*wgpuRenderTarget)
	if !ok || input.Released() {
		return fmt.Errorf("effect %q input %q is not a live target of this backend", effect.Name, in.Label())
	}
	inputGroup, err := input.bindGroup()
	if err != nil {
		return err
	}
	colorView, width, height, format, err := b.colorAttachment(out)
	if err != nil {
		return err
	}
	p, err := b.effectPipeline(format)
	if err != nil {
		return err
	}
	if err := b.ensureRing(b.effects, 1, b.paramsLayout); err != nil {
		return err
	}

	params := effect.Params
	params.Mode = uint32(effect.Mode)
	if params.InvResolution == [2]float32{} {
		params.InvResolution = [2]float32{1 / float32(width), 1 / float32(height)}
	}
	if out == nil && b.surfaceSRGB {
		// the swapchain encodes on store
		params.Flags &^= EffectFlagEncodeSRGB
		if effect.Mode == EffectGamma {
			params.Mode = uint32(EffectCopy)
		}
	}
	offset := uint32(b.effects.next * uniformStride)
	b.effects.next++
	b.queue.WriteBuffer(b.effects.buffer, uint64(offset), params.Marshal())

	pass := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       colorView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{A: 1},
			},
		},
	})
	defer pass.Release()
	pass.SetPipeline(p)
	pass.SetBindGroup(0, inputGroup, nil)
	pass.SetBindGroup(1, b.effects.group, []uint32{offset})
	pass.Draw(3, 1, 0, 0)
	pass.End()
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.log.Warnf("failed to finish frame: %v", err)
	} else {
		b.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.flushRetired()

	if b.frame%cacheSweepInterval == 0 {
		b.sweepCaches()
	}
}

// sweepCaches drops GPU state for meshes and materials no longer drawn.
func (b *wgpuRendererBackendImpl) sweepCaches() {
	if b.frame < cacheSweepInterval {
		return
	}
	cutoff := b.frame - cacheSweepInterval
	for g, m := range b.meshes {
		if m.lastUsed < cutoff {
			m.release()
			delete(b.meshes, g)
		}
	}
	for m, c := range b.materials {
		if c.lastUsed < cutoff {
			delete(b.materials, m)
		}
	}
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) UploadEnvironment(m *environment.Map) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m == nil {
		return b.uploadEnvironmentLevels("Environment Placeholder", []environment.Level{{Width: 1, Height: 1, Pixels: make([]float32, 3)}})
	}
	if m.Released() {
		return fmt.Errorf("environment map %q was released", m.Name())
	}
	return b.uploadEnvironmentLevels(m.Name(), m.Levels())
}

// uploadEnvironmentLevels replaces the environment texture. Levels past the first one whose size
// breaks the mip chain are dropped.
func (b *wgpuRendererBackendImpl) uploadEnvironmentLevels(label string, levels []environment.Level) error {
	if len(levels) == 0 {
		return errors.New("environment map has no levels")
	}
	base := levels[0]
	mips := 1
	for mips < len(levels) {
		want := [2]int{max(base.Width>>mips, 1), max(base.Height>>mips, 1)}
		if levels[mips].Width != want[0] || levels[mips].Height != want[1] {
			break
		}
		mips++
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(base.Width),
			Height:             uint32(base.Height),
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA16Float,
		MipLevelCount: uint32(mips),
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("failed to create environment texture: %w", err)
	}

	for i, level := range levels[:mips] {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: uint32(i),
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			level.RGBA16F(),
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(level.Width * 8),
				RowsPerImage: uint32(level.Height),
			},
			&wgpu.Extent3D{
				Width:              uint32(level.Width),
				Height:             uint32(level.Height),
				DepthOrArrayLayers: 1,
			},
		)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create environment view: %w", err)
	}

	if oldTex, oldView := b.envTexture, b.envView; oldTex != nil {
		b.retire(func() {
			oldView.Release()
			oldTex.Release()
		})
	}
	b.envTexture, b.envView = tex, view
	b.log.Debugf("uploaded environment %s: %dx%d, %d mips", label, base.Width, base.Height, mips)
	return b.rebindGlobals()
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
	b.flushRetired()

	for _, m := range b.meshes {
		m.release()
	}
	b.meshes = map[*scene.Geometry]*gpuMesh{}
	b.materials = map[*material.Material]*gpuMaterial{}
	for _, d := range b.depth {
		d.view.Release()
		d.texture.Release()
	}
	b.depth = map[[2]int]*depthBuffer{}
	for _, p := range b.scenePipelines {
		p.Release()
	}
	b.scenePipelines = map[scenePipelineKey]*wgpu.RenderPipeline{}
	for _, p := range b.effectPipelines {
		p.Release()
	}
	b.effectPipelines = map[wgpu.TextureFormat]*wgpu.RenderPipeline{}

	for _, ring := range []*uniformRing{b.cameras, b.draws, b.effects} {
		if ring != nil && ring.buffer != nil {
			ring.group.Release()
			ring.buffer.Release()
			ring.buffer, ring.group = nil, nil
		}
	}

	releasers := []interface{ Release() }{
		b.envView, b.envTexture, b.lightsBuffer, b.envSampler, b.inputSampler,
		b.sceneLayout, b.effectLayout, b.globalsLayout, b.drawLayout, b.inputLayout, b.paramsLayout,
		b.sceneModule, b.effectModule, b.queue, b.device, b.adapter, b.surface, b.instance,
	}
	for _, r := range releasers {
		if r != nil && !isNilReleaser(r) {
			r.Release()
		}
	}
	b.envView, b.envTexture, b.lightsBuffer = nil, nil, nil
	b.envSampler, b.inputSampler = nil, nil
	b.sceneLayout, b.effectLayout = nil, nil
	b.globalsLayout, b.drawLayout, b.inputLayout, b.paramsLayout = nil, nil, nil, nil
	b.sceneModule, b.effectModule = nil, nil
	b.queue, b.device, b.adapter, b.surface, b.instance = nil, nil, nil, nil, nil
}

// isNilReleaser reports whether r wraps a typed nil pointer.
func isNilReleaser(r interface{ Release() }) bool {
	switch v := r.(type) {
	case *wgpu.TextureView:
		return v == nil
	case *wgpu.Texture:
		return v == nil
	case *wgpu.Buffer:
		return v == nil
	case *wgpu.Sampler:
		return v == nil
	case *wgpu.PipelineLayout:
		return v == nil
	case *wgpu.BindGroupLayout:
		return v == nil
	case *wgpu.ShaderModule:
		return v == nil
	case *wgpu.Queue:
		return v == nil
	case *wgpu.Device:
		return v == nil
	case *wgpu.Adapter:
		return v == nil
	case *wgpu.Surface:
		return v == nil
	case *wgpu.Instance:
		return v == nil
	}
	return false
}

// wgpuRenderTarget is an RGBA16Float color texture usable as attachment and effect input.
type wgpuRenderTarget struct {
	mu      *sync.Mutex
	backend *wgpuRendererBackendImpl

	label    string
	width    int
	height   int
	texture  *wgpu.Texture
	view     *wgpu.TextureView
	group    *wgpu.BindGroup
	released bool
}

var _ RenderTarget = &wgpuRenderTarget{}

// allocate creates the texture. The backend lock must be held.
func (t *wgpuRenderTarget) allocate(width, height int) error {
	b := t.backend
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     t.label,
		Usage:     wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		Format:        targetFormat,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("failed to create render target %q: %w", t.label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create render target view %q: %w", t.label, err)
	}
	t.texture, t.view = tex, view
	t.width, t.height = width, height
	return nil
}

// free retires the target's GPU objects. The backend lock must be held.
func (t *wgpuRenderTarget) free() {
	tex, view, group := t.texture, t.view, t.group
	t.texture, t.view, t.group = nil, nil, nil
	t.backend.retire(func() {
		if group != nil {
			group.Release()
		}
		if view != nil {
			view.Release()
		}
		if tex != nil {
			tex.Release()
		}
	})
}

// bindGroup returns the effect input group over the target. The backend lock must be held.
func (t *wgpuRenderTarget) bindGroup() (*wgpu.BindGroup, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.group != nil {
		return t.group, nil
	}
	b := t.backend
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  t.label + " Input Bind Group",
		Layout: b.inputLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: t.view},
			{Binding: 1, Sampler: b.inputSampler},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bind render target %q: %w", t.label, err)
	}
	t.group = group
	return group, nil
}

func (t *wgpuRenderTarget) Label() string { return t.label }

func (t *wgpuRenderTarget) Width() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width
}

func (t *wgpuRenderTarget) Height() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.height
}

func (t *wgpuRenderTarget) Resize(width, height int) error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return fmt.Errorf("render target %q was released", t.label)
	}
	width, height = max(width, 1), max(height, 1)
	if width == t.width && height == t.height {
		return nil
	}
	t.free()
	return t.allocate(width, height)
}

func (t *wgpuRenderTarget) Release() {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return
	}
	t.released = true
	t.free()
}

func (t *wgpuRenderTarget) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}
