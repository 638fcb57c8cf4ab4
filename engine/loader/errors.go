package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for a file extension no backend handles.
	ErrUnsupportedFormat = errors.New("loader: unsupported model format")

	// ErrUnsupportedExtension is returned when a model requires a glTF extension the viewer cannot
	// honor, such as Draco mesh compression.
	ErrUnsupportedExtension = errors.New("loader: unsupported required extension")

	// ErrClosed is returned by batch loads after Close.
	ErrClosed = errors.New("loader: closed")
)

// LoadError reports the failure of one asset.
type LoadError struct {
	Locator Locator
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Locator.Name, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
