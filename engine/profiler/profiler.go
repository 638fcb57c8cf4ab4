package profiler

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
)

// Stats is one interval's snapshot.
type Stats struct {
	FPS float64

	// Frame times in milliseconds over the interval.
	FrameMS    float64
	MinFrameMS float64
	MaxFrameMS float64

	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	NumGC       uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// String renders the overlay line.
func (s Stats) String() string {
	return fmt.Sprintf("FPS: %.2f | Frame: %.2f ms (min %.2f, max %.2f) | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		s.FPS, s.FrameMS, s.MinFrameMS, s.MaxFrameMS, s.HeapMB, s.AllocRateMB, s.NumGC, s.LastPauseUs, s.MaxPauseUs, s.SysMB)
}

// Profiler tracks frame rate, frame time and memory statistics. A snapshot is taken once per
// interval; while the overlay is visible the snapshot is also logged.
type Profiler struct {
	mu *sync.Mutex

	now            func() time.Time
	log            logger.Logger
	updateInterval time.Duration
	visible        bool

	frameCount     int
	lastTime       time.Time
	lastFrame      time.Time
	minFrame       time.Duration
	maxFrame       time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	stats Stats
}

// NewProfiler creates a hidden Profiler with a one second interval.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		now:            time.Now,
		log:            logger.Nop(),
		updateInterval: time.Second,
	}
	for _, option := range options {
		option(p)
	}
	p.reset(p.now())
	return p
}

func (p *Profiler) reset(t time.Time) {
	p.frameCount = 0
	p.lastTime = t
	p.lastFrame = t
	p.minFrame = time.Duration(math.MaxInt64)
	p.maxFrame = 0
}

// Tick should be called once per frame. When the interval has elapsed a new snapshot replaces
// the previous one.
//
// Returns:
//   - bool: true if a snapshot was taken this tick
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.now()
	frame := current.Sub(p.lastFrame)
	p.lastFrame = current
	p.frameCount++
	p.minFrame = min(p.minFrame, frame)
	p.maxFrame = max(p.maxFrame, frame)

	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	seconds := elapsed.Seconds()
	s := Stats{
		FPS:        float64(p.frameCount) / seconds,
		FrameMS:    seconds * 1000 / float64(p.frameCount),
		MinFrameMS: float64(p.minFrame) / float64(time.Millisecond),
		MaxFrameMS: float64(p.maxFrame) / float64(time.Millisecond),
	}

	runtime.ReadMemStats(&p.memStats)
	s.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	s.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	s.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds

	s.NumGC = p.memStats.NumGC
	if s.NumGC > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		s.LastPauseUs = p.memStats.PauseNs[(s.NumGC+255)%256] / 1000
		start := p.lastGCCount
		if s.NumGC-start > 256 {
			start = s.NumGC - 256
		}
		for i := start; i < s.NumGC; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.stats = s
	p.lastGCCount = s.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.reset(current)

	if p.visible {
		p.log.Infof("%s", s)
	}
	return true
}

// Stats returns the last snapshot, zero before the first interval ends.
func (p *Profiler) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Visible reports whether the overlay is shown.
func (p *Profiler) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// SetVisible shows or hides the overlay.
//
// Parameters:
//   - visible: the new visibility
func (p *Profiler) SetVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = visible
}

// ToggleVisible flips the overlay visibility.
//
// Returns:
//   - bool: the new visibility
func (p *Profiler) ToggleVisible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = !p.visible
	return p.visible
}
