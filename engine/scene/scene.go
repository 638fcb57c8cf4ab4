package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/environment"
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/material"
)

// Scene is the session-level holder of everything the viewer draws: the node tree with its
// model group, the environment slot, the light rig and the axes helper flag.
// Thread-safe for concurrent access.
type Scene interface {
	// Root returns the tree root. Lights and helpers hang off the root; loaded models hang off
	// the model group.
	Root() *Node

	// Models returns the group every loaded fragment is attached to.
	Models() *Node

	// AddModel attaches a loaded fragment to the model group.
	//
	// Parameters:
	//   - fragment: the fragment root
	//
	// Returns:
	//   - error: error if the fragment cannot be attached
	AddModel(fragment *Node) error

	// ClearModels detaches every loaded fragment.
	ClearModels()

	// ModelCount returns the number of attached fragments.
	ModelCount() int

	// Drawables flattens the visible meshes of the scene for submission.
	//
	// Returns:
	//   - []Drawable: one entry per mesh material
	Drawables() []Drawable

	// Environment returns the installed environment map and the scene intensity.
	//
	// Returns:
	//   - *environment.Map: the installed map, or nil
	//   - float32: the environment intensity
	Environment() (*environment.Map, float32)

	// SetEnvironment installs a new environment map. The slot owns the map: a replaced map is
	// released unless it is the one being installed. When updateMaterials is set every material
	// is rebound to the new map and intensity and flagged for update before this returns.
	//
	// Parameters:
	//   - m: the new map, nil clears the slot
	//   - intensity: the scene environment intensity
	//   - updateMaterials: whether to rebind the materials
	SetEnvironment(m *environment.Map, intensity float32, updateMaterials bool)

	// SetEnvironmentIntensity changes the scene intensity and rebinds every material to it.
	//
	// Parameters:
	//   - intensity: the new scene environment intensity
	SetEnvironmentIntensity(intensity float32)

	// Lights returns the scene light rig.
	Lights() []light.Light

	// AxesVisible reports whether the axes helper is drawn.
	AxesVisible() bool

	// SetAxesVisible shows or hides the axes helper.
	SetAxesVisible(visible bool)

	// ToggleAxes flips the axes helper and returns the new state.
	ToggleAxes() bool

	// Release releases the installed environment map. Safe to call more than once.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	root   *Node
	models *Node

	env          *environment.Map
	envIntensity float32

	lights      []light.Light
	axesVisible bool
}

var _ Scene = &scene{}

// DefaultEnvironmentIntensity is the scene intensity before any is configured.
const DefaultEnvironmentIntensity float32 = 0.5

// NewScene creates a scene with the default ambient and sun lights and an empty model group.
//
// Parameters:
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:           &sync.RWMutex{},
		root:         NewNode("scene"),
		models:       NewNode("models"),
		envIntensity: DefaultEnvironmentIntensity,
		lights:       []light.Light{light.NewAmbientLight(), light.NewSunLight()},
	}
	_ = s.root.Add(s.models)

	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Root() *Node {
	return s.root
}

func (s *scene) Models() *Node {
	return s.models
}

func (s *scene) AddModel(fragment *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.models.Add(fragment)
}

func (s *scene) ClearModels() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models.Clear()
}

func (s *scene) ModelCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models.children)
}

func (s *scene) Drawables() []Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CollectDrawables(s.root)
}

func (s *scene) Environment() (*environment.Map, float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env, s.envIntensity
}

func (s *scene) SetEnvironment(m *environment.Map, intensity float32, updateMaterials bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.env
	s.env = m
	s.envIntensity = intensity
	if updateMaterials {
		ForEachMaterial(s.root, func(mat *material.Material) {
			material.BindEnvironment(mat, m, intensity)
		})
	}
	if prev != nil && prev != m {
		prev.Release()
	}
}

func (s *scene) SetEnvironmentIntensity(intensity float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.envIntensity = intensity
	ForEachMaterial(s.root, func(mat *material.Material) {
		material.BindEnvironment(mat, s.env, intensity)
	})
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]light.Light, len(s.lights))
	copy(out, s.lights)
	return out
}

func (s *scene) AxesVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.axesVisible
}

func (s *scene) SetAxesVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.axesVisible = visible
}

func (s *scene) ToggleAxes() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.axesVisible = !s.axesVisible
	return s.axesVisible
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.env != nil {
		s.env.Release()
		s.env = nil
	}
}
