package light

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeAmbient represents a uniform light with no position or direction. It lifts every
	// fragment by color * intensity.
	LightTypeAmbient LightType = iota

	// LightTypeDirectional represents a distant light shining from its position toward its target.
	// Only the direction matters for shading; the position is kept so shadow flags and helpers have
	// a meaningful origin.
	LightTypeDirectional
)

// String returns the light type name used in logs.
func (t LightType) String() string {
	switch t {
	case LightTypeAmbient:
		return "ambient"
	case LightTypeDirectional:
		return "directional"
	default:
		return "unknown"
	}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	lightType    LightType
	position     mgl32.Vec3
	target       mgl32.Vec3
	color        common.Color
	intensity    float32
	enabled      bool
	castsShadows bool
}

// Light defines the interface for a light source in the scene.
//
// The viewer lights every model with one ambient and one directional light. Both are owned by the
// scene and marshaled into the renderer's light uniform each frame via GPULights.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for ambient lights.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Direction returns the normalized direction the light travels, from its position toward its
	// target. Zero for ambient lights or when position and target coincide.
	//
	// Returns:
	//   - mgl32.Vec3: normalized direction
	Direction() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - common.Color: the color
	Color() common.Color

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Enabled returns whether this light is active for rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// CastsShadows returns whether this light is flagged as a shadow caster.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - position: the new position
	SetPosition(position mgl32.Vec3)

	// SetTarget sets the point a directional light shines toward.
	//
	// Parameters:
	//   - target: the new target
	SetTarget(target mgl32.Vec3)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - color: the new color
	SetColor(color common.Color)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetCastsShadows sets whether the light is flagged as a shadow caster.
	//
	// Parameters:
	//   - castsShadows: true to enable shadow casting
	SetCastsShadows(castsShadows bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		lightType: lightType,
		position:  mgl32.Vec3{0, 1, 0},
		color:     common.White,
		intensity: 1.0,
		enabled:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewAmbientLight creates the viewer's default ambient light: white at 0.35.
//
// Returns:
//   - Light: the ambient light
func NewAmbientLight() Light {
	return NewLight(LightTypeAmbient,
		WithColor(common.ColorFromHex(0xffffff)),
		WithIntensity(0.35),
	)
}

// NewSunLight creates the viewer's default directional light: a warm white at intensity 5,
// shining from (300, 150, 200) toward the origin and flagged as a shadow caster.
//
// Returns:
//   - Light: the directional light
func NewSunLight() Light {
	return NewLight(LightTypeDirectional,
		WithColor(common.ColorFromHex(0xfffdf6)),
		WithIntensity(5),
		WithPosition(mgl32.Vec3{300, 150, 200}),
		WithCastsShadows(true),
	)
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lightType == LightTypeAmbient {
		return mgl32.Vec3{}
	}
	dir := l.target.Sub(l.position)
	if dir.Len() < common.Epsilon {
		return mgl32.Vec3{}
	}
	return dir.Normalize()
}

func (l *lightImpl) Color() common.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.castsShadows
}

func (l *lightImpl) SetPosition(position mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = position
}

func (l *lightImpl) SetTarget(target mgl32.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.target = target
}

func (l *lightImpl) SetColor(color common.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = color
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.castsShadows = castsShadows
}
