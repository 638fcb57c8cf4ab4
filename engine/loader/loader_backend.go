package loader

import (
	"context"
	"io"

	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
)

// Source describes where a model stream comes from.
type Source struct {
	// Name becomes the fragment root name.
	Name string

	// BaseDir resolves relative references such as external buffers. Empty for in-memory data.
	BaseDir string
}

// loaderBackend decodes one model format into a scene fragment. Implementations must honor ctx
// between expensive steps.
type loaderBackend interface {
	// Decode reads a complete model from r.
	//
	// Parameters:
	//   - ctx: cancellation for the decode
	//   - r: the model stream
	//   - src: naming and reference resolution for the stream
	//
	// Returns:
	//   - *scene.Node: the fragment root
	//   - error: error if decoding fails
	Decode(ctx context.Context, r io.Reader, src Source) (*scene.Node, error)

	// Extensions lists the lowercase file extensions the backend handles, with the leading dot.
	Extensions() []string
}
