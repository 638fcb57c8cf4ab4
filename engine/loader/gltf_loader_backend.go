package loader

import (
	"context"
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
)

// gltfLoaderBackend decodes glTF JSON and GLB files.
type gltfLoaderBackend struct{}

var _ loaderBackend = &gltfLoaderBackend{}

// newGLTFLoaderBackend creates a new glTF loader backend.
func newGLTFLoaderBackend() loaderBackend {
	return &gltfLoaderBackend{}
}

func (b *gltfLoaderBackend) Extensions() []string {
	return []string{".gltf", ".glb"}
}

func (b *gltfLoaderBackend) Decode(ctx context.Context, r io.Reader, src Source) (*scene.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := newGLTFParser(src.BaseDir)
	if err := parser.Parse(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", src.Name, err)
	}
	return newGLTFSceneBuilder(parser).Build(ctx, src.Name)
}
