package loader

import (
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithLogger is an option builder that sets the logger used by the Loader.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(l logger.Logger) LoaderBuilderOption {
	return func(ld *loader) {
		if l != nil {
			ld.log = l.Named("loader")
		}
	}
}

// WithMaxWorkers is an option builder that caps how many assets a batch decodes in parallel.
//
// Parameters:
//   - n: the worker count; values <= 0 keep the default
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithMaxWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.maxWorkers = n
		}
	}
}

// WithIdleTimeout is an option builder that sets how long an idle pool worker lingers.
//
// Parameters:
//   - d: the idle timeout
//
// Returns:
//   - LoaderBuilderOption: a function that applies the timeout option to a loader
func WithIdleTimeout(d time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		if d > 0 {
			l.idleTimeout = d
		}
	}
}
