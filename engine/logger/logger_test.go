package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", false)
	assert.Error(t, err)

	l, err := New("", true)
	require.NoError(t, err)
	assert.False(t, l.DebugEnabled())
}

func TestSetDebugTogglesLevel(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	core, logs := observer.New(level)
	l := NewFromZap(zap.New(core), level)

	l.Debugf("hidden %d", 1)
	assert.Equal(t, 0, logs.Len())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "shown 2", logs.All()[0].Message)

	l.Named("framer").Warnf("bounding box is empty; skip centering")
	entries := logs.FilterMessage("bounding box is empty; skip centering").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "framer", entries[0].LoggerName)
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Infof("x")
		l.Errorf("y")
		_ = l.Sync()
	})
}
