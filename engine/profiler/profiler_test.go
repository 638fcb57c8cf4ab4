package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newObserved() (logger.Logger, *observer.ObservedLogs) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core, logs := observer.New(level)
	return logger.NewFromZap(zap.New(core), level), logs
}

func TestTickSnapshotsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now))

	for i := 0; i < 9; i++ {
		clock.advance(100 * time.Millisecond)
		assert.False(t, p.Tick(), "tick %d", i)
	}
	assert.Zero(t, p.Stats().FPS)

	clock.advance(100 * time.Millisecond)
	require.True(t, p.Tick())

	s := p.Stats()
	assert.InDelta(t, 10, s.FPS, 1e-9)
	assert.InDelta(t, 100, s.FrameMS, 1e-9)
	assert.InDelta(t, 100, s.MinFrameMS, 1e-9)
	assert.InDelta(t, 100, s.MaxFrameMS, 1e-9)
	assert.Greater(t, s.SysMB, 0.0)
}

func TestFrameTimeExtremes(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(time.Second))

	for _, d := range []time.Duration{10, 50, 940} {
		clock.advance(d * time.Millisecond)
		p.Tick()
	}
	s := p.Stats()
	assert.InDelta(t, 3, s.FPS, 1e-9)
	assert.InDelta(t, 10, s.MinFrameMS, 1e-9)
	assert.InDelta(t, 940, s.MaxFrameMS, 1e-9)

	// extremes reset with each interval
	clock.advance(time.Second)
	p.Tick()
	assert.InDelta(t, 1000, p.Stats().MinFrameMS, 1e-9)
}

func TestLogsOnlyWhenVisible(t *testing.T) {
	log, logs := newObserved()
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithLogger(log))

	clock.advance(time.Second)
	require.True(t, p.Tick())
	assert.Equal(t, 0, logs.Len())

	assert.True(t, p.ToggleVisible())
	clock.advance(500 * time.Millisecond)
	require.False(t, p.Tick())
	assert.Equal(t, 0, logs.Len())

	clock.advance(500 * time.Millisecond)
	require.True(t, p.Tick())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "profiler", entry.LoggerName)
	assert.Contains(t, entry.Message, "FPS: 2.00")

	p.SetVisible(false)
	assert.False(t, p.Visible())
	clock.advance(time.Second)
	p.Tick()
	assert.Equal(t, 1, logs.Len())
}

func TestWithVisible(t *testing.T) {
	assert.True(t, NewProfiler(WithVisible(true)).Visible())
	assert.False(t, NewProfiler().Visible())
}
