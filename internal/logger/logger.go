// Package logger provides a shared structured logger for the bundle
// registry server. It wraps zap behind package-level functions so callers
// do not need to thread a logger through every constructor.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger

func init() {
	// A usable logger must exist before Initialize is called, otherwise
	// early failures in flag parsing are silently dropped.
	Initialize(false)
}

// Initialize configures the package logger. Debug mode switches to the
// development encoder and enables debug-level output.
func Initialize(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	// Keep stdout clean for commands that print data (e.g. version --format json).
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	log = l.Sugar()
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = log.Sync()
}

// Debug logs at debug level.
func Debug(args ...any) { log.Debug(args...) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { log.Debugf(format, args...) }

// Info logs at info level.
func Info(args ...any) { log.Info(args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { log.Infof(format, args...) }

// Warn logs at warn level.
func Warn(args ...any) { log.Warn(args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { log.Warnf(format, args...) }

// Error logs at error level.
func Error(args ...any) { log.Error(args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { log.Errorf(format, args...) }

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) { log.Fatalf(format, args...) }
