package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/miderror/dev-mentor/internal/core/ports/primary"
)

var _ primary.Logger = (*ZapLogger)(nil)

// ZapLogger implements the Logger interface with zap
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// NewZapLogger creates a new zap logger.
// level is a zap level name ("debug", "info", ...); an unknown name falls back to info.
func NewZapLogger(level string, development bool) *ZapLogger {
	config := zap.NewProductionConfig()
	if development {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := config.Build()
	if err != nil {
		logger = zap.NewNop()
	}

	return &ZapLogger{
		logger: logger.Sugar(),
	}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop().Sugar()}
}

// FromZap wraps an existing zap logger
func FromZap(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger.Sugar()}
}

// Info logs an info message
func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.logger.Infow(msg, args...)
}

// Error logs an error message
func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.logger.Errorw(msg, args...)
}

// Debug logs a debug message
func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.logger.Debugw(msg, args...)
}

// Warn logs a warning message
func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.logger.Warnw(msg, args...)
}

// With returns a child logger carrying the given fields on every entry
func (l *ZapLogger) With(args ...interface{}) primary.Logger {
	return &ZapLogger{logger: l.logger.With(args...)}
}

// Sync flushes buffered entries
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
