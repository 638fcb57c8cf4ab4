package renderer

// RenderTarget is an offscreen color buffer the pass graph reads from and writes to.
type RenderTarget interface {
	// Label returns the debug label given at creation.
	Label() string

	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Resize reallocates the target at a new size. Contents are lost.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: error if reallocation fails or the target was released
	Resize(width, height int) error

	// Release frees the target. Calling it again is a no-op.
	Release()

	// Released reports whether Release has been called.
	Released() bool
}

// ScaledSize converts a logical size into a drawing buffer size. Both results are at least 1.
//
// Parameters:
//   - width: the logical width
//   - height: the logical height
//   - pixelRatio: the device pixel ratio
//
// Returns:
//   - int: the buffer width
//   - int: the buffer height
func ScaledSize(width, height int, pixelRatio float32) (int, int) {
	w := int(float32(width) * pixelRatio)
	h := int(float32(height) * pixelRatio)
	return max(w, 1), max(h, 1)
}
