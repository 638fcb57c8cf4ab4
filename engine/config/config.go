package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/common"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned by Load for files that are neither YAML nor TOML.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Config is the complete viewer configuration. Every section has defaults (see Default) and
// a file only needs to name the values it overrides.
type Config struct {
	Window      WindowConfig      `yaml:"window" toml:"window"`
	Camera      CameraConfig      `yaml:"camera" toml:"camera"`
	Controls    ControlsConfig    `yaml:"controls" toml:"controls"`
	Composer    ComposerConfig    `yaml:"composer" toml:"composer"`
	Environment EnvironmentConfig `yaml:"environment" toml:"environment"`
	Framing     FramingConfig     `yaml:"framing" toml:"framing"`
	Materials   MaterialsConfig   `yaml:"materials" toml:"materials"`
	Views       []ViewConfig      `yaml:"views" toml:"views"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Stats       StatsConfig       `yaml:"stats" toml:"stats"`
}

// WindowConfig sizes and titles the application window.
type WindowConfig struct {
	Title  string `yaml:"title" toml:"title"`
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
	// FrameLimit caps the render loop in frames per second; 0 is uncapped.
	FrameLimit float64 `yaml:"frameLimit" toml:"frameLimit"`
}

// CameraConfig holds the perspective camera defaults. Fov is in degrees.
type CameraConfig struct {
	Fov      float32    `yaml:"fov" toml:"fov"`
	Near     float32    `yaml:"near" toml:"near"`
	Far      float32    `yaml:"far" toml:"far"`
	Position [3]float32 `yaml:"position" toml:"position"`
	Target   [3]float32 `yaml:"target" toml:"target"`
}

// ControlsConfig tunes the orbit/pan controller.
type ControlsConfig struct {
	EnableDamping      bool    `yaml:"enableDamping" toml:"enableDamping"`
	DampingFactor      float32 `yaml:"dampingFactor" toml:"dampingFactor"`
	ScreenSpacePanning bool    `yaml:"screenSpacePanning" toml:"screenSpacePanning"`
	RotateSpeed        float32 `yaml:"rotateSpeed" toml:"rotateSpeed"`
	PanSpeed           float32 `yaml:"panSpeed" toml:"panSpeed"`
	ZoomSpeed          float32 `yaml:"zoomSpeed" toml:"zoomSpeed"`
}

// ComposerConfig selects and tunes the post-processing effects.
type ComposerConfig struct {
	Enabled            bool    `yaml:"enabled" toml:"enabled"`
	UseSSAO            bool    `yaml:"useSSAO" toml:"useSSAO"`
	UseOutline         bool    `yaml:"useOutline" toml:"useOutline"`
	UseTAA             bool    `yaml:"useTAA" toml:"useTAA"`
	UseFXAA            bool    `yaml:"useFXAA" toml:"useFXAA"`
	UseSMAA            bool    `yaml:"useSMAA" toml:"useSMAA"`
	UseGammaCorrection bool    `yaml:"useGammaCorrection" toml:"useGammaCorrection"`
	UseColorCorrection bool    `yaml:"useColorCorrection" toml:"useColorCorrection"`
	TAASampleLevel     int     `yaml:"taaSampleLevel" toml:"taaSampleLevel"`
	HighlightColor     string  `yaml:"highlightColor" toml:"highlightColor"`
	SSAOKernelRadius   float32 `yaml:"ssaoKernelRadius" toml:"ssaoKernelRadius"`
	SSAOMinDistance    float32 `yaml:"ssaoMinDistance" toml:"ssaoMinDistance"`
	SSAOMaxDistance    float32 `yaml:"ssaoMaxDistance" toml:"ssaoMaxDistance"`
}

// EnvironmentConfig names the default environment map.
type EnvironmentConfig struct {
	Path string `yaml:"path" toml:"path"`
	// Kind is "hdr" or "exr"; empty derives it from the path extension.
	Kind      string  `yaml:"kind" toml:"kind"`
	Intensity float32 `yaml:"intensity" toml:"intensity"`
	// PrefilterLevels is the number of blurred mip levels built after load.
	PrefilterLevels int `yaml:"prefilterLevels" toml:"prefilterLevels"`
}

// FramingConfig tunes the auto-framer.
type FramingConfig struct {
	Margin        float32    `yaml:"margin" toml:"margin"`
	MinRadius     float32    `yaml:"minRadius" toml:"minRadius"`
	ViewDirection [3]float32 `yaml:"viewDirection" toml:"viewDirection"`
}

// MaterialsConfig controls the post-load material pass.
type MaterialsConfig struct {
	ReceiveShadow bool `yaml:"receiveShadow" toml:"receiveShadow"`
}

// ViewConfig is a named preset camera view.
type ViewConfig struct {
	Name     string     `yaml:"name" toml:"name"`
	Position [3]float32 `yaml:"position" toml:"position"`
	Target   [3]float32 `yaml:"target" toml:"target"`
}

// LoggingConfig selects the log level and encoder.
type LoggingConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

// StatsConfig controls the diagnostic overlay.
type StatsConfig struct {
	Visible bool `yaml:"visible" toml:"visible"`
}

// decoder is satisfied by both the YAML and TOML stream decoders.
type decoder interface {
	Decode(v any) error
}

// decoderFunc creates a decoder reading from r.
type decoderFunc func(r io.Reader) decoder

var decoders = map[string]decoderFunc{
	".yaml": func(r io.Reader) decoder { return yaml.NewDecoder(r) },
	".yml":  func(r io.Reader) decoder { return yaml.NewDecoder(r) },
	".toml": func(r io.Reader) decoder { return toml.NewDecoder(r) },
}

// Default returns the configuration the viewer runs with when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "Oxy Viewer",
			Width:  1600,
			Height: 900,
		},
		Camera: CameraConfig{
			Fov:      60,
			Near:     0.1,
			Far:      10000,
			Position: [3]float32{0, 0, 10},
		},
		Controls: ControlsConfig{
			EnableDamping: false,
			DampingFactor: 0.05,
			RotateSpeed:   1,
			PanSpeed:      1,
			ZoomSpeed:     1,
		},
		Composer: ComposerConfig{
			Enabled:            true,
			UseTAA:             true,
			TAASampleLevel:     1,
			UseColorCorrection: true,
			HighlightColor:     "#fff",
			SSAOKernelRadius:   8,
			SSAOMinDistance:    0.005,
			SSAOMaxDistance:    0.1,
		},
		Environment: EnvironmentConfig{
			Path:            "hdr/rostock_laage_airport_2k.hdr",
			Intensity:       0.5,
			PrefilterLevels: 5,
		},
		Framing: FramingConfig{
			Margin:        1.1,
			MinRadius:     0.001,
			ViewDirection: [3]float32{1, 1, 1},
		},
		Materials: MaterialsConfig{
			ReceiveShadow: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Stats: StatsConfig{
			Visible: true,
		},
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over the defaults and normalizes the result.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - Config: the loaded configuration
//   - error: error if the file cannot be read or decoded
func Load(path string) (Config, error) {
	newDecoder, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	return read(bufio.NewReader(f), newDecoder)
}

// ReadFormat decodes a configuration from r over the defaults using the decoder for the given
// extension.
//
// Parameters:
//   - r: the encoded configuration
//   - ext: ".yaml", ".yml" or ".toml"
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if the extension is unknown or decoding fails
func ReadFormat(r io.Reader, ext string) (Config, error) {
	newDecoder, ok := decoders[strings.ToLower(ext)]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return read(r, newDecoder)
}

func read(r io.Reader, newDecoder decoderFunc) (Config, error) {
	cfg := Default()
	// a file that only holds comments decodes to nothing
	if err := newDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize clamps cosmetic values into their valid ranges. Invalid values are never rejected.
func (c *Config) Normalize() {
	d := Default()

	if c.Window.Width <= 0 {
		c.Window.Width = d.Window.Width
	}
	if c.Window.Height <= 0 {
		c.Window.Height = d.Window.Height
	}
	if c.Window.FrameLimit < 0 {
		c.Window.FrameLimit = 0
	}

	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		c.Camera.Fov = d.Camera.Fov
	}
	if c.Camera.Near <= 0 {
		c.Camera.Near = d.Camera.Near
	}
	if c.Camera.Far <= c.Camera.Near {
		c.Camera.Far = c.Camera.Near + d.Camera.Far
	}

	c.Controls.DampingFactor = common.Clamp(c.Controls.DampingFactor, 0, 1)

	if c.Composer.TAASampleLevel <= 0 {
		c.Composer.TAASampleLevel = 1
	}
	c.Composer.TAASampleLevel = common.Clamp(c.Composer.TAASampleLevel, 1, 5)
	if _, err := common.ParseColor(c.Composer.HighlightColor); err != nil {
		c.Composer.HighlightColor = d.Composer.HighlightColor
	}

	if c.Environment.Intensity < 0 {
		c.Environment.Intensity = 0
	}
	if c.Environment.PrefilterLevels <= 0 {
		c.Environment.PrefilterLevels = 1
	}

	if c.Framing.Margin <= 1 {
		c.Framing.Margin = d.Framing.Margin
	}
	if c.Framing.MinRadius <= 0 {
		c.Framing.MinRadius = d.Framing.MinRadius
	}
	if c.Framing.ViewDirection == [3]float32{} {
		c.Framing.ViewDirection = d.Framing.ViewDirection
	}
}

// HighlightColor returns the parsed composer highlight color.
func (c Config) HighlightColor() common.Color {
	col, err := common.ParseColor(c.Composer.HighlightColor)
	if err != nil {
		return common.White
	}
	return col
}

// View looks up a preset view by name.
//
// Parameters:
//   - name: the preset name
//
// Returns:
//   - ViewConfig: the preset
//   - bool: false if no preset has that name
func (c Config) View(name string) (ViewConfig, bool) {
	for _, v := range c.Views {
		if v.Name == name {
			return v, true
		}
	}
	return ViewConfig{}, false
}
