package viewer

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/loader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
)

// SessionBuilderOption is a functional option for configuring a Session.
type SessionBuilderOption func(*session)

// WithConfig sets the configuration the session builds its camera, controller, scene, framer and
// pass graph from. The configuration is normalized before use.
//
// Parameters:
//   - cfg: the viewer configuration
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithConfig(cfg config.Config) SessionBuilderOption {
	return func(s *session) {
		s.cfg = cfg
	}
}

// WithLogger sets the logger. Every component the session creates logs through a named child.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithLogger(l logger.Logger) SessionBuilderOption {
	return func(s *session) {
		if l != nil {
			s.base = l
			s.log = l.Named("viewer")
		}
	}
}

// WithLoader replaces the default model loader. The session closes it on Dispose.
//
// Parameters:
//   - ld: the loader
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithLoader(ld loader.Loader) SessionBuilderOption {
	return func(s *session) {
		s.loader = ld
	}
}
