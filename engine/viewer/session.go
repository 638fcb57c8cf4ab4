package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
	"github.com/Carmen-Shannon/oxy-viewer/engine/framer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/Carmen-Shannon/oxy-viewer/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the session's current state.
	ErrInvalidState = errors.New("invalid session state")

	// ErrLoadInProgress is returned by Load while another load is running.
	ErrLoadInProgress = errors.New("a load is already in progress")

	// ErrUnknownView is returned by ChangeView for a name with no configured preset.
	ErrUnknownView = errors.New("unknown view")

	// ErrDisposed is returned by operations on a disposed session.
	ErrDisposed = errors.New("session disposed")
)

// State is the lifecycle stage of a Session.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateRendering
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// Session is the viewer's context object. It owns the scene, the camera and its controller, the
// renderer, the post-processing graph, the model loader and the diagnostic profiler, and drives
// them through the load, frame and render lifecycle.
type Session interface {
	// State returns the current lifecycle state.
	State() State

	// Status returns the human-readable load status.
	Status() string

	// Config returns the configuration the session was built with.
	Config() config.Config

	// Scene returns the scene being viewed.
	Scene() scene.Scene

	// Camera returns the perspective camera.
	Camera() camera.Camera

	// Controller returns the orbit/pan controller attached to the camera.
	Controller() camera.CameraController

	// Renderer returns the renderer the session draws with.
	Renderer() renderer.Renderer

	// Graph returns the post-processing graph, or nil when the composer is disabled.
	Graph() postprocess.PassGraph

	// Profiler returns the diagnostic profiler.
	Profiler() *profiler.Profiler

	// Load loads every locator, normalizes and attaches each model as it arrives, then frames the
	// camera around the result and moves to StateReady. It is allowed from StateUninitialized and
	// StateLoading. On failure the state stays at StateLoading, the models that did load stay in
	// the scene and a retry only loads the locators that are still missing.
	//
	// Parameters:
	//   - ctx: cancels the load
	//   - locators: the models to load
	//
	// Returns:
	//   - error: the first *loader.LoadError, ErrInvalidState, ErrLoadInProgress or ErrDisposed
	Load(ctx context.Context, locators []loader.Locator) error

	// Tick advances and renders one frame. It does nothing unless the session is StateReady or
	// StateRendering; the first tick moves StateReady to StateRendering.
	//
	// Parameters:
	//   - dt: seconds since the previous tick
	//
	// Returns:
	//   - error: a render error, or ErrDisposed
	Tick(dt float32) error

	// Resize updates the camera aspect, the renderer surface and the post-processing targets.
	//
	// Parameters:
	//   - width: the new logical width
	//   - height: the new logical height
	Resize(width, height int)

	// SetPixelRatio changes the device pixel ratio and resizes the post-processing targets.
	//
	// Parameters:
	//   - ratio: the new pixel ratio
	SetPixelRatio(ratio float32)

	// SetEnvironment loads, prefilters and installs an environment map and rebinds every material
	// to it. A failure is logged and the previous map stays installed.
	//
	// Parameters:
	//   - ctx: cancels the decode
	//   - path: an .hdr or .exr file
	//
	// Returns:
	//   - bool: true if the new map was installed
	SetEnvironment(ctx context.Context, path string) bool

	// SetEnvironmentIntensity changes the scene environment intensity.
	//
	// Parameters:
	//   - intensity: the new intensity, negative values become 0
	SetEnvironmentIntensity(intensity float32)

	// Reframe fits the camera around the loaded models again.
	//
	// Returns:
	//   - framer.Result: the framing outcome
	Reframe() framer.Result

	// Views returns the configured preset view names in order.
	Views() []string

	// ChangeView animates the camera to a configured preset view.
	//
	// Parameters:
	//   - name: the preset name
	//
	// Returns:
	//   - error: ErrUnknownView if no preset has that name
	ChangeView(name string) error

	// FocusOn animates the camera toward a point.
	//
	// Parameters:
	//   - point: the world-space point to focus
	FocusOn(point mgl32.Vec3)

	// Pick casts a ray from the camera through a viewport point and returns the nearest model
	// mesh it hits.
	//
	// Parameters:
	//   - x: the horizontal position in logical pixels from the left edge
	//   - y: the vertical position in logical pixels from the top edge
	//
	// Returns:
	//   - scene.Hit: the nearest hit
	//   - bool: false when no model is under the point
	Pick(x, y float32) (scene.Hit, bool)

	// FocusAt picks the model under a viewport point and animates the camera to look at its
	// origin from a short distance. Nothing happens when no model is under the point.
	//
	// Parameters:
	//   - x: the horizontal position in logical pixels from the left edge
	//   - y: the vertical position in logical pixels from the top edge
	//
	// Returns:
	//   - bool: true if a model was hit
	FocusAt(x, y float32) bool

	// ToggleStats flips the diagnostic overlay.
	//
	// Returns:
	//   - bool: the new visibility
	ToggleStats() bool

	// ToggleAxes flips the axes helper.
	//
	// Returns:
	//   - bool: the new visibility
	ToggleAxes() bool

	// CameraPose returns the controller's position and target.
	CameraPose() (position, target mgl32.Vec3)

	// Dispose releases the pass graph, the loader pool, the scene and the renderer. Calling it
	// again is a no-op.
	Dispose()
}

type session struct {
	mu *sync.Mutex

	cfg  config.Config
	base logger.Logger
	log  logger.Logger

	state      State
	status     string
	loading    bool
	disposed   bool
	attached   map[uuid.UUID]bool
	cancelLoad context.CancelFunc

	scene    scene.Scene
	cam      camera.Camera
	ctrl     camera.CameraController
	animator camera.ViewAnimator
	renderer renderer.Renderer
	graph    postprocess.PassGraph
	loader   loader.Loader
	framer   framer.Framer
	profiler *profiler.Profiler

	elapsed time.Duration
	frame   uint64

	disposeOnce sync.Once
}

var _ Session = &session{}

// NewSession creates a Session drawing with r. The session takes ownership of r and of the
// loader, and releases both on Dispose.
//
// Parameters:
//   - r: the renderer to draw with
//   - options: variadic list of SessionBuilderOption functions
//
// Returns:
//   - Session: the new session
//   - error: error if r is nil or the post-processing graph cannot be built
func NewSession(r renderer.Renderer, options ...SessionBuilderOption) (Session, error) {
	if r == nil {
		return nil, errors.New("renderer is required")
	}

	s := &session{
		mu:       &sync.Mutex{},
		cfg:      config.Default(),
		base:     logger.Nop(),
		log:      logger.Nop(),
		state:    StateUninitialized,
		attached: make(map[uuid.UUID]bool),
		renderer: r,
	}
	for _, opt := range options {
		opt(s)
	}
	s.cfg.Normalize()

	s.ctrl = camera.NewCameraController(
		camera.WithPosition(mgl32.Vec3(s.cfg.Camera.Position)),
		camera.WithTarget(mgl32.Vec3(s.cfg.Camera.Target)),
		camera.WithDamping(s.cfg.Controls.EnableDamping, s.cfg.Controls.DampingFactor),
		camera.WithRotateSpeed(s.cfg.Controls.RotateSpeed),
		camera.WithPanSpeed(s.cfg.Controls.PanSpeed),
		camera.WithZoomSpeed(s.cfg.Controls.ZoomSpeed),
		camera.WithScreenSpacePanning(s.cfg.Controls.ScreenSpacePanning),
	)
	width, height := r.Size()
	s.cam = camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(s.cfg.Camera.Fov)),
		camera.WithAspect(aspect(width, height)),
		camera.WithClip(s.cfg.Camera.Near, s.cfg.Camera.Far),
		camera.WithController(s.ctrl),
	)
	s.animator = camera.NewViewAnimator(s.ctrl)

	s.scene = scene.NewScene(
		scene.WithEnvironmentIntensity(s.cfg.Environment.Intensity),
	)
	s.framer = framer.NewFramer(
		framer.WithMargin(s.cfg.Framing.Margin),
		framer.WithMinRadius(s.cfg.Framing.MinRadius),
		framer.WithViewDirection(mgl32.Vec3(s.cfg.Framing.ViewDirection)),
		framer.WithLogger(s.base),
	)
	s.profiler = profiler.NewProfiler(
		profiler.WithLogger(s.base),
		profiler.WithVisible(s.cfg.Stats.Visible),
	)
	if s.loader == nil {
		s.loader = loader.NewLoader(loader.WithLogger(s.base))
	}

	if s.cfg.Composer.Enabled {
		graph, err := postprocess.Build(r, composerOptions(s.cfg, r), postprocess.WithLogger(s.base))
		if err != nil {
			s.loader.Close()
			return nil, fmt.Errorf("failed to build pass graph: %w", err)
		}
		s.graph = graph
	}

	return s, nil
}

// composerOptions maps the composer section of cfg onto pass graph options sized to r.
func composerOptions(cfg config.Config, r renderer.Renderer) postprocess.Options {
	opts := postprocess.DefaultOptions()
	opts.UseSSAO = cfg.Composer.UseSSAO
	opts.UseOutline = cfg.Composer.UseOutline
	opts.UseTAA = cfg.Composer.UseTAA
	opts.UseFXAA = cfg.Composer.UseFXAA
	opts.UseSMAA = cfg.Composer.UseSMAA
	opts.UseGammaCorrection = cfg.Composer.UseGammaCorrection
	opts.UseColorCorrection = cfg.Composer.UseColorCorrection
	opts.TAASampleLevel = cfg.Composer.TAASampleLevel
	opts.HighlightColor = cfg.HighlightColor()
	opts.SSAO.KernelRadius = cfg.Composer.SSAOKernelRadius
	opts.SSAO.MinDistance = cfg.Composer.SSAOMinDistance
	opts.SSAO.MaxDistance = cfg.Composer.SSAOMaxDistance
	opts.Width, opts.Height = r.Size()
	opts.PixelRatio = r.PixelRatio()
	return opts
}

func aspect(width, height int) float32 {
	return float32(max(width, 1)) / float32(max(height, 1))
}

func (s *session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *session) Config() config.Config {
	return s.cfg
}

func (s *session) Scene() scene.Scene {
	return s.scene
}

func (s *session) Camera() camera.Camera {
	return s.cam
}

func (s *session) Controller() camera.CameraController {
	return s.ctrl
}

func (s *session) Renderer() renderer.Renderer {
	return s.renderer
}

func (s *session) Graph() postprocess.PassGraph {
	return s.graph
}

func (s *session) Profiler() *profiler.Profiler {
	return s.profiler
}

func (s *session) Load(ctx context.Context, locators []loader.Locator) error {
	s.mu.Lock()
	switch {
	case s.disposed:
		s.mu.Unlock()
		return ErrDisposed
	case s.loading:
		s.mu.Unlock()
		return ErrLoadInProgress
	case s.state != StateUninitialized && s.state != StateLoading:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot load while %s", ErrInvalidState, state)
	}
	s.state = StateLoading
	s.loading = true
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancelLoad = cancel

	pending := make([]loader.Locator, 0, len(locators))
	for _, loc := range locators {
		if !s.attached[loc.ID] {
			pending = append(pending, loc)
		}
	}
	s.status = loader.BatchProgress{Total: len(pending)}.Status()
	s.mu.Unlock()

	s.log.Infof("loading %d models", len(pending))
	_, err := s.loader.LoadBatch(ctx, pending, s.onProgress, s.attach)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.cancelLoad = nil
	if s.disposed {
		return ErrDisposed
	}
	if err != nil {
		s.status = loader.StatusFailed
		s.log.Errorf("model loading failed: %v", err)
		return err
	}

	result := s.framer.Frame(s.scene.Models(), s.cam)
	if !result.Skipped {
		s.log.Debugf("framed models: center %v radius %.3f distance %.3f", result.Center, result.Radius, result.Distance)
	}
	s.status = loader.StatusDone
	s.state = StateReady
	s.log.Infof("%d models loaded", s.scene.ModelCount())
	return nil
}

func (s *session) onProgress(p loader.BatchProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = p.Status()
}

// attach normalizes a fragment against the environment installed right now and adds it to the
// model group.
func (s *session) attach(fragment loader.Fragment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}

	env, intensity := s.scene.Environment()
	count := scene.NormalizeMaterials(fragment.Root, env, intensity, s.cfg.Materials.ReceiveShadow)
	if err := s.scene.AddModel(fragment.Root); err != nil {
		s.log.Warnf("failed to attach %s: %v", fragment.Locator.Name, err)
		return
	}
	s.attached[fragment.Locator.ID] = true
	s.log.Debugf("attached %s with %d materials", fragment.Locator.Name, count)
}

func (s *session) Tick(dt float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrDisposed
	}
	if s.state != StateReady && s.state != StateRendering {
		return nil
	}
	s.state = StateRendering

	delta := time.Duration(float64(dt) * float64(time.Second))
	s.elapsed += delta

	s.cam.Update()
	moved := s.animator.Update(dt)
	if s.ctrl.Update(dt) {
		moved = true
	}
	if moved {
		s.cam.Update()
	}
	s.profiler.Tick()

	view := renderer.NewSceneView(s.cam, s.scene)
	defer func() { s.frame++ }()

	if s.graph != nil {
		return s.graph.Render(postprocess.FrameContext{
			Renderer: s.renderer,
			View:     view,
			Delta:    delta,
			Elapsed:  s.elapsed,
			Frame:    s.frame,
		})
	}

	if err := s.renderer.BeginFrame(); err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}
	defer s.renderer.EndFrame()
	if err := s.renderer.DrawScene(nil, view); err != nil {
		return fmt.Errorf("failed to draw scene: %w", err)
	}
	return nil
}

func (s *session) Resize(width, height int) {
	width, height = max(width, 1), max(height, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}

	s.cam.SetAspect(aspect(width, height))
	s.cam.Update()
	s.renderer.Resize(width, height)
	if s.graph != nil {
		if err := s.graph.Resize(width, height); err != nil {
			s.log.Errorf("failed to resize pass graph: %v", err)
		}
	}
}

func (s *session) SetPixelRatio(ratio float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}

	s.renderer.SetPixelRatio(ratio)
	if s.graph != nil {
		width, height := s.renderer.Size()
		if err := s.graph.Resize(width, height); err != nil {
			s.log.Errorf("failed to resize pass graph: %v", err)
		}
	}
}

func (s *session) SetEnvironment(ctx context.Context, path string) bool {
	kind, err := s.environmentKind(path)
	if err != nil {
		s.log.Warnf("failed to load environment %s: %v", path, err)
		return false
	}

	m, err := environment.Load(ctx, path, kind)
	if err != nil {
		s.log.Warnf("failed to load environment %s: %v", path, err)
		return false
	}
	if err := environment.Prefilter(m, s.cfg.Environment.PrefilterLevels); err != nil {
		m.Release()
		s.log.Warnf("failed to prefilter environment %s: %v", path, err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		m.Release()
		return false
	}
	if err := s.renderer.UploadEnvironment(m); err != nil {
		m.Release()
		s.log.Warnf("failed to upload environment %s: %v", path, err)
		return false
	}

	_, intensity := s.scene.Environment()
	s.scene.SetEnvironment(m, intensity, true)
	s.log.Infof("environment %s installed (%dx%d, %d levels)", m.Name(), m.Width(), m.Height(), len(m.Levels()))
	return true
}

// environmentKind honors the configured kind for the configured map and derives it from the
// extension otherwise.
func (s *session) environmentKind(path string) (environment.Kind, error) {
	if s.cfg.Environment.Kind != "" && path == s.cfg.Environment.Path {
		return environment.ParseKind(s.cfg.Environment.Kind)
	}
	return environment.KindFromPath(path)
}

func (s *session) SetEnvironmentIntensity(intensity float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.SetEnvironmentIntensity(max(intensity, 0))
}

func (s *session) Reframe() framer.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animator.Stop()
	return s.framer.Frame(s.scene.Models(), s.cam)
}

func (s *session) Views() []string {
	names := make([]string, 0, len(s.cfg.Views))
	for _, v := range s.cfg.Views {
		names = append(names, v.Name)
	}
	return names
}

func (s *session) ChangeView(name string) error {
	view, ok := s.cfg.View(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownView, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.animator.AnimateTo(mgl32.Vec3(view.Position), mgl32.Vec3(view.Target), camera.DefaultTransitionDuration)
	return nil
}

func (s *session) FocusOn(point mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animator.FocusOn(point)
}

func (s *session) Pick(x, y float32) (scene.Hit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pick(x, y)
}

func (s *session) FocusAt(x, y float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	hit, ok := s.pick(x, y)
	if !ok {
		return false
	}
	s.log.Debugf("picked %q at %v", hit.Node.Name, hit.Point)
	s.animator.FocusOn(hit.Position)
	return true
}

// pick casts the viewport ray into the model group. Caller must hold the mutex.
func (s *session) pick(x, y float32) (scene.Hit, bool) {
	if s.disposed {
		return scene.Hit{}, false
	}
	s.cam.Update()
	w, h := s.renderer.Size()
	return scene.Pick(s.scene.Models(), camera.ScreenRay(s.cam, x, y, w, h))
}

func (s *session) ToggleStats() bool {
	return s.profiler.ToggleVisible()
}

func (s *session) ToggleAxes() bool {
	return s.scene.ToggleAxes()
}

func (s *session) CameraPose() (mgl32.Vec3, mgl32.Vec3) {
	return s.ctrl.Position(), s.ctrl.Target()
}

func (s *session) Dispose() {
	s.disposeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.disposed = true
		if s.cancelLoad != nil {
			s.cancelLoad()
		}
		if s.graph != nil {
			s.graph.Dispose()
		}
		s.loader.Close()
		s.scene.Release()
		s.renderer.Release()
		s.log.Infof("session disposed")
	})
}
