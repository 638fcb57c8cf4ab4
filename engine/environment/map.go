// Package environment decodes equirectangular HDR environment maps and prepares them for image
// based lighting.
package environment

import (
	"errors"
	"sync"
)

var (
	// ErrUnsupportedKind is returned for environment files that are neither Radiance HDR nor OpenEXR.
	ErrUnsupportedKind = errors.New("unsupported environment map kind")

	// ErrInvalidHDR is returned when a Radiance HDR stream is malformed.
	ErrInvalidHDR = errors.New("invalid radiance hdr")

	// ErrInvalidEXR is returned when an OpenEXR stream is malformed or uses an unsupported feature.
	ErrInvalidEXR = errors.New("invalid openexr")

	// ErrReleased is returned when a released map is modified.
	ErrReleased = errors.New("environment map released")
)

// Kind is the encoding of an environment map file.
type Kind int

const (
	KindHDR Kind = iota
	KindEXR
)

// String returns the file extension name of the kind.
func (k Kind) String() string {
	switch k {
	case KindHDR:
		return "hdr"
	case KindEXR:
		return "exr"
	default:
		return "unknown"
	}
}

// Level is one equirectangular image of a map's mip chain: linear RGB floats, three per pixel,
// top row first.
type Level struct {
	Width  int
	Height int
	Pixels []float32
}

// At returns the linear RGB value of a pixel.
//
// Parameters:
//   - x: column, 0 at the left
//   - y: row, 0 at the top
//
// Returns:
//   - r, g, b: the pixel value
func (l Level) At(x, y int) (r, g, b float32) {
	i := (y*l.Width + x) * 3
	return l.Pixels[i], l.Pixels[i+1], l.Pixels[i+2]
}

// Map is a decoded environment map with its prefiltered mip chain. The scene's environment slot
// owns it; materials only reference it and never release it.
type Map struct {
	mu *sync.Mutex

	name      string
	kind      Kind
	levels    []Level
	released  bool
	onRelease []func()
}

// NewMap wraps a decoded base image as a single-level map.
//
// Parameters:
//   - name: a display name, usually the source file name
//   - kind: the source encoding
//   - base: the full-resolution image
//
// Returns:
//   - *Map: the new map
func NewMap(name string, kind Kind, base Level) *Map {
	return &Map{
		mu:     &sync.Mutex{},
		name:   name,
		kind:   kind,
		levels: []Level{base},
	}
}

// Name returns the display name of the map.
func (m *Map) Name() string {
	return m.name
}

// Kind returns the source encoding of the map.
func (m *Map) Kind() Kind {
	return m.kind
}

// Width returns the width of the base level.
func (m *Map) Width() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.levels) == 0 {
		return 0
	}
	return m.levels[0].Width
}

// Height returns the height of the base level.
func (m *Map) Height() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.levels) == 0 {
		return 0
	}
	return m.levels[0].Height
}

// Levels returns the mip chain, base level first. It is empty once the map is released.
//
// Returns:
//   - []Level: a copy of the level list
func (m *Map) Levels() []Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Level, len(m.levels))
	copy(out, m.levels)
	return out
}

// SetLevels replaces the mip chain.
//
// Parameters:
//   - levels: the new chain, base level first
//
// Returns:
//   - error: ErrReleased if the map was released
func (m *Map) SetLevels(levels []Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return ErrReleased
	}
	m.levels = levels
	return nil
}

// OnRelease registers a hook run once when the map is released. GPU backends use it to free the
// texture they uploaded for the map. Hooks registered after release run immediately.
//
// Parameters:
//   - fn: the hook
func (m *Map) OnRelease(fn func()) {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		fn()
		return
	}
	m.onRelease = append(m.onRelease, fn)
	m.mu.Unlock()
}

// Released reports whether Release has been called.
func (m *Map) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// Release drops the pixel data and runs the release hooks. Later calls do nothing.
func (m *Map) Release() {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return
	}
	m.released = true
	m.levels = nil
	hooks := m.onRelease
	m.onRelease = nil
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
