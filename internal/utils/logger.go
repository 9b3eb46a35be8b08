package utils

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	sugar *zap.SugaredLogger
	level zapcore.Level
}

// NewFileLogger appends to path, creating parent directories as needed. The
// TUI uses it so log lines never reach the alternate screen.
func NewFileLogger(level, path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return newLogger(level, zapcore.Lock(f)), nil
}

// NewWriterLogger logs to w at the given level ("debug", "info", "warn",
// "error"). The CLI passes its stderr; tests pass a buffer.
func NewWriterLogger(level string, w io.Writer) *Logger {
	return newLogger(level, zapcore.AddSync(w))
}

func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), level: zapcore.FatalLevel}
}

func newLogger(level string, out zapcore.WriteSyncer) *Logger {
	lvl := parseLevel(level)
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), out, lvl)
	return &Logger{sugar: zap.New(core).Sugar(), level: lvl}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...), level: l.level}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

func (l *Logger) DebugEnabled() bool {
	return l.level <= zapcore.DebugLevel
}

func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}
