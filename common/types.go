// package common contains common types that are used throughout the viewer. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errInvalidColor = errors.New("invalid color")

// Color is a linear RGB color with components in [0, 1].
type Color struct {
	R, G, B float32
}

// White is the default highlight color.
var White = Color{1, 1, 1}

// ColorFromHex converts a packed 0xRRGGBB value into a Color.
//
// Parameters:
//   - hex: the packed color
//
// Returns:
//   - Color: the unpacked color
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float32((hex>>16)&0xff) / 255,
		G: float32((hex>>8)&0xff) / 255,
		B: float32(hex&0xff) / 255,
	}
}

// ParseColor parses "#rgb", "#rrggbb" and "0xrrggbb" color strings.
//
// Parameters:
//   - s: the color string
//
// Returns:
//   - Color: the parsed color
//   - error: error if the string is not a recognized color
func ParseColor(s string) (Color, error) {
	v := strings.TrimSpace(strings.ToLower(s))
	switch {
	case strings.HasPrefix(v, "#"):
		v = v[1:]
	case strings.HasPrefix(v, "0x"):
		v = v[2:]
	default:
		return Color{}, fmt.Errorf("%w: %q", errInvalidColor, s)
	}

	if len(v) == 3 {
		v = string([]byte{v[0], v[0], v[1], v[1], v[2], v[2]})
	}
	if len(v) != 6 {
		return Color{}, fmt.Errorf("%w: %q", errInvalidColor, s)
	}

	packed, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", errInvalidColor, s)
	}
	return ColorFromHex(uint32(packed)), nil
}

// Vec returns the color as an RGBA array with the given alpha.
func (c Color) Vec(alpha float32) [4]float32 {
	return [4]float32{c.R, c.G, c.B, alpha}
}
