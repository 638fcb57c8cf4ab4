package postprocess

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
)

// BuildOption is a functional option applied to a pass graph during Build.
type BuildOption func(*passGraph)

// WithLogger sets the logger the graph reports to.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - BuildOption: a function that applies the logger option to a pass graph
func WithLogger(l logger.Logger) BuildOption {
	return func(g *passGraph) {
		if l != nil {
			g.log = l.Named("postprocess")
		}
	}
}
