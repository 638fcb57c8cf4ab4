package scene

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithLights replaces the default light rig.
//
// Parameters:
//   - lights: the lights to use
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.lights = lights
	}
}

// WithEnvironmentIntensity sets the initial environment intensity.
//
// Parameters:
//   - intensity: the scene environment intensity
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEnvironmentIntensity(intensity float32) SceneBuilderOption {
	return func(s *scene) {
		s.envIntensity = intensity
	}
}

// WithAxesVisible sets whether the axes helper starts visible.
//
// Parameters:
//   - visible: true to show the axes helper
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAxesVisible(visible bool) SceneBuilderOption {
	return func(s *scene) {
		s.axesVisible = visible
	}
}
