package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the leveled, printf-style logger shared by every viewer component.
// Components receive one through a WithLogger builder option and fall back to Nop().
type Logger interface {
	// DebugEnabled reports whether Debugf output is currently emitted.
	DebugEnabled() bool

	// SetDebug switches the minimum level between debug and info at runtime.
	//
	// Parameters:
	//   - enabled: true to emit debug output
	SetDebug(enabled bool)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// Named returns a child logger whose entries carry the given component name.
	//
	// Parameters:
	//   - name: the component name
	//
	// Returns:
	//   - Logger: the child logger, sharing level and sinks with the parent
	Named(name string) Logger

	// Sync flushes any buffered log entries.
	//
	// Returns:
	//   - error: error from the underlying sink, if any
	Sync() error
}

type zapLogger struct {
	level zap.AtomicLevel
	sugar *zap.SugaredLogger
}

var _ Logger = &zapLogger{}

// New builds a zap-backed Logger.
//
// Parameters:
//   - level: minimum level name ("debug", "info", "warn", "error"); empty means "info"
//   - development: true for the human-readable console encoder, false for JSON output
//
// Returns:
//   - Logger: the configured logger
//   - error: error if the level is unknown or zap fails to build
func New(level string, development bool) (Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log level: %w", err)
		}
		lvl = parsed
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &zapLogger{level: cfg.Level, sugar: z.Sugar()}, nil
}

// NewFromZap wraps an existing zap logger. The returned Logger's SetDebug only affects
// levels enforced by the given atomic level.
//
// Parameters:
//   - z: the zap logger to wrap
//   - level: the atomic level the logger's core was built with
//
// Returns:
//   - Logger: the wrapping logger
func NewFromZap(z *zap.Logger, level zap.AtomicLevel) Logger {
	return &zapLogger{level: level, sugar: z.Sugar()}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zapLogger{level: zap.NewAtomicLevelAt(zapcore.InfoLevel), sugar: zap.NewNop().Sugar()}
}

func (l *zapLogger) DebugEnabled() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

func (l *zapLogger) SetDebug(enabled bool) {
	if enabled {
		l.level.SetLevel(zapcore.DebugLevel)
		return
	}
	l.level.SetLevel(zapcore.InfoLevel)
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *zapLogger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *zapLogger) Warnf(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *zapLogger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{level: l.level, sugar: l.sugar.Named(name)}
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}
