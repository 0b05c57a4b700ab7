// Package obslog builds the process-wide zap logger, optionally rotating
// file output through lumberjack alongside stdout.
package obslog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures logger construction.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	// File, when non-empty, mirrors log output to a rotated file.
	File       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

// New builds a zap logger per opts. The returned AtomicLevel stays wired to
// the logger's core, so a caller (internal/config.LevelWatcher) can raise or
// lower verbosity on a running process without rebuilding the logger.
func New(opts Options) (*zap.Logger, zap.AtomicLevel, error) {
	atomicLevel := zap.NewAtomicLevelAt(parseLevel(opts.Level))

	var config zap.Config
	if opts.Format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = atomicLevel

	if opts.File == "" {
		logger, err := config.Build()
		return logger, atomicLevel, err
	}

	encoder := zapcore.NewJSONEncoder(config.EncoderConfig)
	if opts.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(config.EncoderConfig)
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxAge:     opts.MaxAgeDays,
		MaxBackups: opts.MaxBackups,
		LocalTime:  true,
		Compress:   true,
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.AddSync(rotator), atomicLevel),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), atomicLevel),
	)

	return zap.New(core, zap.AddCaller()), atomicLevel, nil
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
