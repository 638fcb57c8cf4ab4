package environment

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// KindFromPath derives the map kind from a file extension.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Kind: KindHDR for .hdr, KindEXR for .exr
//   - error: ErrUnsupportedKind for anything else
func KindFromPath(path string) (Kind, error) {
	return ParseKind(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseKind parses a kind name as written in config files ("hdr" or "exr", any case).
//
// Parameters:
//   - name: the kind name
//
// Returns:
//   - Kind: the parsed kind
//   - error: ErrUnsupportedKind if the name is unknown
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "hdr":
		return KindHDR, nil
	case "exr":
		return KindEXR, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
	}
}

// Decode decodes an environment map of the given kind from r.
//
// Parameters:
//   - r: the encoded stream
//   - name: the display name for the map
//   - kind: the stream encoding
//
// Returns:
//   - *Map: the decoded single-level map
//   - error: error if decoding fails
func Decode(r io.Reader, name string, kind Kind) (*Map, error) {
	var (
		base Level
		err  error
	)
	switch kind {
	case KindHDR:
		base, err = DecodeHDR(r)
	case KindEXR:
		base, err = DecodeEXR(r)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKind, kind)
	}
	if err != nil {
		return nil, err
	}
	return NewMap(name, kind, base), nil
}

// Load reads and decodes an environment map file. The context is checked before the file is
// opened and again after decoding, so a cancelled load never returns a map.
//
// Parameters:
//   - ctx: cancellation for the load
//   - path: the file path
//   - kind: the file encoding
//
// Returns:
//   - *Map: the decoded single-level map
//   - error: error if the context is done, the file cannot be read, or decoding fails
func Load(ctx context.Context, path string, kind Kind) (*Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open environment map: %w", err)
	}
	defer f.Close()

	m, err := Decode(f, filepath.Base(path), kind)
	if err != nil {
		return nil, fmt.Errorf("failed to decode environment map %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}
