package framer

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/go-gl/mathgl/mgl32"
)

// FramerBuilderOption is a function that configures a framer during construction.
type FramerBuilderOption func(*framerImpl)

// WithMargin sets the multiplier applied to the fitted distance.
//
// Parameters:
//   - margin: the distance margin, values <= 0 keep the default
//
// Returns:
//   - FramerBuilderOption: a function that applies the margin option
func WithMargin(margin float32) FramerBuilderOption {
	return func(f *framerImpl) {
		f.margin = margin
	}
}

// WithMinRadius sets the smallest radius used for fitting.
//
// Parameters:
//   - radius: the minimum radius, values <= 0 keep the default
//
// Returns:
//   - FramerBuilderOption: a function that applies the minimum radius option
func WithMinRadius(radius float32) FramerBuilderOption {
	return func(f *framerImpl) {
		f.minRadius = radius
	}
}

// WithViewDirection sets the direction from the target toward the framed camera.
//
// Parameters:
//   - direction: the view direction, a zero vector keeps the default
//
// Returns:
//   - FramerBuilderOption: a function that applies the direction option
func WithViewDirection(direction mgl32.Vec3) FramerBuilderOption {
	return func(f *framerImpl) {
		f.direction = direction
	}
}

// WithLogger sets the logger used for framing warnings.
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - FramerBuilderOption: a function that applies the logger option
func WithLogger(log logger.Logger) FramerBuilderOption {
	return func(f *framerImpl) {
		if log != nil {
			f.log = log
		}
	}
}
