package profiler

import (
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithLogger is an option builder that sets where visible snapshots are logged.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the logger option to a profiler
func WithLogger(l logger.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if l != nil {
			p.log = l.Named("profiler")
		}
	}
}

// WithInterval is an option builder that sets the snapshot interval.
//
// Parameters:
//   - d: the interval; values <= 0 keep one second
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option to a profiler
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithVisible is an option builder that sets the initial overlay visibility.
//
// Parameters:
//   - visible: true to show the overlay
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the visibility option to a profiler
func WithVisible(visible bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.visible = visible
	}
}

// WithClock is an option builder that replaces the time source.
//
// Parameters:
//   - now: returns the current time
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the clock option to a profiler
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}
